package availability

import (
	"sort"
	"strings"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// DefaultCombinationKey identifies the single pool of a product that has
// no attribute axes, and reservation items that did not pick a combination.
const DefaultCombinationKey = "__default__"

var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `=`, `\=`)

// NormalizeValue trims and lower-cases an attribute value.
func NormalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// CombinationKey returns the canonical key of an attribute tuple.  Axis keys
// are sorted so that reordering a product's axes never changes the keys
// already stored on reservation items.  Values are normalized and escaped,
// and an axis without a value contributes an empty value.
func CombinationKey(axes []model.AttributeAxis, attrs map[string]string) string {
	if len(axes) == 0 {
		return DefaultCombinationKey
	}
	keys := make([]string, 0, len(axes))
	for _, a := range axes {
		keys = append(keys, strings.TrimSpace(a.Key))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, keyEscaper.Replace(k)+"="+keyEscaper.Replace(NormalizeValue(attrs[k])))
	}
	return strings.Join(parts, "|")
}

// CombinationSortKey returns the display ordering key of an attribute tuple:
// the normalized values in axis order.  Comparison is bytewise so ordering
// does not depend on the process locale.
func CombinationSortKey(axes []model.AttributeAxis, attrs map[string]string) string {
	parts := make([]string, 0, len(axes))
	for _, a := range axes {
		parts = append(parts, NormalizeValue(attrs[strings.TrimSpace(a.Key)]))
	}
	return strings.Join(parts, "\x00")
}

// SelectedAttributes copies the values of attrs that belong to axes,
// keeping the original casing of the first unit seen.
func SelectedAttributes(axes []model.AttributeAxis, attrs map[string]string) map[string]string {
	out := make(map[string]string, len(axes))
	for _, a := range axes {
		k := strings.TrimSpace(a.Key)
		out[k] = strings.TrimSpace(attrs[k])
	}
	return out
}
