package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// ProductRepo reads products together with their pricing tiers and
// tracked units.
type ProductRepo struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewProductRepo returns a ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// ListActive returns the store's active products ordered by id.  When ids
// is non-empty only those products are returned; ids from other stores are
// silently ignored.  Pricing tiers are attached to each product.
func (r *ProductRepo) ListActive(ctx context.Context, storeID uint64, ids []uint64) ([]model.Product, error) {
	where := sq.Eq{"store_id": storeID, "status": string(model.ProductActive)}
	if len(ids) > 0 {
		where["id"] = ids
	}
	query, args, err := r.sb.
		Select("id", "store_id", "name", "price", "deposit", "quantity", "track_units",
			"pricing_mode", "base_period_minutes", "booking_attribute_axes", "status",
			"created_at", "updated_at").
		From("products").
		Where(where).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var (
			p          model.Product
			basePeriod sql.NullInt64
			axes       []byte
		)
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.Deposit, &p.Quantity, &p.TrackUnits,
			&p.PricingMode, &basePeriod, &axes, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if basePeriod.Valid {
			v := int(basePeriod.Int64)
			p.BasePeriodMinutes = &v
		}
		if len(axes) > 0 {
			if err := json.Unmarshal(axes, &p.BookingAttributeAxes); err != nil {
				return nil, fmt.Errorf("product %d attribute axes: %w", p.ID, err)
			}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	tiers, err := r.tiersByProduct(ctx, productIDs(products))
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Tiers = tiers[products[i].ID]
	}
	return products, nil
}

func (r *ProductRepo) tiersByProduct(ctx context.Context, ids []uint64) (map[uint64][]model.PricingTier, error) {
	query, args, err := r.sb.
		Select("id", "product_id", "min_duration", "discount_percent", "period", "price", "display_order").
		From("product_pricing_tiers").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id ASC", "display_order ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]model.PricingTier, len(ids))
	for rows.Next() {
		var (
			t      model.PricingTier
			period sql.NullInt64
			price  decimal.NullDecimal
		)
		if err := rows.Scan(&t.ID, &t.ProductID, &t.MinDuration, &t.DiscountPercent, &period, &price, &t.DisplayOrder); err != nil {
			return nil, err
		}
		if period.Valid {
			v := int(period.Int64)
			t.Period = &v
		}
		if price.Valid {
			v := price.Decimal
			t.Price = &v
		}
		out[t.ProductID] = append(out[t.ProductID], t)
	}
	return out, rows.Err()
}

// UnitsByProduct returns the tracked units of the given products keyed by
// product id.  Units of every status are returned; the availability
// calculator decides which ones count.
func (r *ProductRepo) UnitsByProduct(ctx context.Context, ids []uint64) (map[uint64][]model.ProductUnit, error) {
	out := make(map[uint64][]model.ProductUnit, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := r.sb.
		Select("id", "product_id", "identifier", "status", "attributes").
		From("product_units").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u     model.ProductUnit
			ident sql.NullString
			attrs []byte
		)
		if err := rows.Scan(&u.ID, &u.ProductID, &ident, &u.Status, &attrs); err != nil {
			return nil, err
		}
		u.Identifier = ident.String
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &u.Attributes); err != nil {
				return nil, fmt.Errorf("unit %d attributes: %w", u.ID, err)
			}
		}
		out[u.ProductID] = append(out[u.ProductID], u)
	}
	return out, rows.Err()
}

func productIDs(products []model.Product) []uint64 {
	return lo.Map(products, func(p model.Product, _ int) uint64 { return p.ID })
}
