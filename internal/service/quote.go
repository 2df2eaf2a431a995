package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/businesshours"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/pricing"
)

// QuoteLine is one product of a quote or checkout request.
type QuoteLine struct {
	ProductID  uint64            `json:"productId"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// QuoteRequest prices lines over a period.
type QuoteRequest struct {
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Lines     []QuoteLine `json:"lines"`
}

// QuoteResponse aggregates the per-line quotes.  Total is subtotal plus
// deposit.
type QuoteResponse struct {
	Period           Period          `json:"period"`
	Lines            []pricing.Quote `json:"lines"`
	OriginalSubtotal decimal.Decimal `json:"originalSubtotal"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Savings          decimal.Decimal `json:"savings"`
	Deposit          decimal.Decimal `json:"deposit"`
	Total            decimal.Decimal `json:"total"`
	StrictTiers      bool            `json:"strictTiers"`
}

// QuoteService prices storefront carts without touching inventory.
type QuoteService struct {
	stores   StoreReader
	products ProductReader
}

func NewQuoteService(stores StoreReader, products ProductReader) *QuoteService {
	return &QuoteService{stores: stores, products: products}
}

// Quote prices every line of req with the store's strict-tier setting.
func (s *QuoteService) Quote(ctx context.Context, storeSlug string, req QuoteRequest) (*QuoteResponse, error) {
	store, err := s.stores.GetBySlug(ctx, storeSlug)
	if err != nil {
		return nil, storeErr(err)
	}
	loc := businesshours.ResolveLocation(store.Timezone)
	start, end, err := ParsePeriod(req.StartDate, req.EndDate, loc)
	if err != nil {
		return nil, err
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	byID, err := loadLineProducts(ctx, s.products, store.ID, req.Lines)
	if err != nil {
		return nil, err
	}

	resp := &QuoteResponse{Period: Period{Start: start, End: end}, StrictTiers: store.Settings.EnforceStrictTiers}
	for _, line := range req.Lines {
		q := pricing.QuoteProduct(byID[line.ProductID], start.In(loc), end.In(loc), line.Quantity, store.Settings.EnforceStrictTiers)
		resp.Lines = append(resp.Lines, q)
		resp.OriginalSubtotal = resp.OriginalSubtotal.Add(q.OriginalSubtotal)
		resp.Subtotal = resp.Subtotal.Add(q.Subtotal)
		resp.Savings = resp.Savings.Add(q.Savings)
		resp.Deposit = resp.Deposit.Add(q.Deposit)
	}
	resp.Total = resp.Subtotal.Add(resp.Deposit)
	return resp, nil
}

func validateLines(lines []QuoteLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidRequest)
	}
	for _, l := range lines {
		if l.ProductID == 0 {
			return fmt.Errorf("%w: productId is required", ErrInvalidRequest)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidRequest)
		}
	}
	return nil
}

// loadLineProducts loads the active products referenced by lines.  Any
// unknown, archived or foreign id is ErrProductNotFound.
func loadLineProducts(ctx context.Context, pr ProductReader, storeID uint64, lines []QuoteLine) (map[uint64]model.Product, error) {
	ids := lo.Uniq(lo.Map(lines, func(l QuoteLine, _ int) uint64 { return l.ProductID }))
	products, err := pr.ListActive(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(products, func(p model.Product) uint64 { return p.ID })
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
	}
	return byID, nil
}
