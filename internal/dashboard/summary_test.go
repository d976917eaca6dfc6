package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/shopspring/decimal"
)

type fakePortfolios struct {
	portfolios map[int64]*domain.Portfolio
}

func (f *fakePortfolios) CreatePortfolio(context.Context, string) (*domain.Portfolio, error) {
	return nil, nil
}

func (f *fakePortfolios) GetPortfolioByID(_ context.Context, id int64) (*domain.Portfolio, error) {
	return f.portfolios[id], nil
}

func (f *fakePortfolios) GetAllPortfolios(context.Context) ([]*domain.Portfolio, error) {
	portfolios := []*domain.Portfolio{}
	for _, p := range f.portfolios {
		portfolios = append(portfolios, p)
	}
	return portfolios, nil
}

func (f *fakePortfolios) RenamePortfolio(context.Context, int64, string) error { return nil }
func (f *fakePortfolios) DeletePortfolio(context.Context, int64) error         { return nil }

type fakeHoldings struct {
	holdings []*domain.Holding
}

func (f *fakeHoldings) GetHoldingBySymbol(context.Context, int64, string) (*domain.Holding, error) {
	return nil, nil
}

func (f *fakeHoldings) GetHoldingsByPortfolio(_ context.Context, portfolioID int64) ([]*domain.Holding, error) {
	holdings := []*domain.Holding{}
	for _, h := range f.holdings {
		if h.PortfolioID == portfolioID {
			holdings = append(holdings, h)
		}
	}
	return holdings, nil
}

func (f *fakeHoldings) GetHeldSymbols(context.Context) ([]string, error) { return nil, nil }

func (f *fakeHoldings) CreateHoldingWithTransaction(context.Context, *domain.Holding, *domain.Transaction) (*domain.Holding, error) {
	return nil, nil
}

func (f *fakeHoldings) UpdateHoldingWithTransaction(context.Context, *domain.Holding, *domain.Transaction) error {
	return nil
}

func (f *fakeHoldings) UpdateHolding(context.Context, int64, decimal.Decimal, decimal.Decimal) error {
	return nil
}

func (f *fakeHoldings) DeleteHolding(context.Context, int64) error { return nil }

// stubMarket serves fixed quotes; symbols in failing error out, symbols in
// stale come back flagged.
type stubMarket struct {
	prices   map[string]string
	previous map[string]string
	failing  map[string]bool
	stale    map[string]bool
}

func (s *stubMarket) Quote(_ context.Context, symbol string) (*domain.Quote, bool, error) {
	if s.failing[symbol] {
		return nil, false, errors.New("no cached or fresh value available")
	}

	quote := &domain.Quote{
		Symbol:    symbol,
		Price:     decimal.RequireFromString(s.prices[symbol]),
		FetchedAt: time.Now(),
	}
	if prev, ok := s.previous[symbol]; ok {
		quote.PreviousClose = decimal.RequireFromString(prev)
	}

	return quote, s.stale[symbol], nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func holding(id int64, symbol, quantity, averageCost string, createdAt time.Time) *domain.Holding {
	return &domain.Holding{
		ID:          id,
		PortfolioID: 1,
		Symbol:      symbol,
		Quantity:    dec(quantity),
		AverageCost: dec(averageCost),
		CreatedAt:   createdAt,
	}
}

func newTestAggregator(holdings []*domain.Holding, market QuoteGetter) *Aggregator {
	portfolios := &fakePortfolios{portfolios: map[int64]*domain.Portfolio{
		1: {ID: 1, Name: "main"},
	}}

	return NewAggregator(portfolios, &fakeHoldings{holdings: holdings}, market)
}

func TestSummaryValuation(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	holdings := []*domain.Holding{
		holding(1, "AAPL", "15", "153.33", base),
		holding(2, "GOOG", "2", "2500", base.Add(time.Hour)),
	}
	market := &stubMarket{
		prices:   map[string]string{"AAPL": "170", "GOOG": "2800"},
		previous: map[string]string{"AAPL": "168", "GOOG": "2750"},
	}

	summary, err := newTestAggregator(holdings, market).Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(summary.Rows))
	}

	aapl := summary.Rows[0]
	if aapl.Symbol != "AAPL" {
		t.Fatalf("first row = %s, want AAPL (creation order)", aapl.Symbol)
	}
	if !aapl.MarketValue.Equal(dec("2550")) {
		t.Errorf("AAPL market value = %s, want 2550", aapl.MarketValue)
	}
	if !aapl.UnrealizedGain.Equal(dec("15").Mul(dec("170").Sub(dec("153.33")))) {
		t.Errorf("AAPL unrealized gain = %s", aapl.UnrealizedGain)
	}
	if !aapl.DayGain.Equal(dec("30")) {
		t.Errorf("AAPL day gain = %s, want 30", aapl.DayGain)
	}

	if !summary.TotalMarketValue.Equal(dec("8150")) {
		t.Errorf("total market value = %s, want 8150", summary.TotalMarketValue)
	}

	wantAllocation := dec("2550").Div(dec("8150")).Mul(dec("100"))
	if !aapl.Allocation.Equal(wantAllocation) {
		t.Errorf("AAPL allocation = %s, want %s", aapl.Allocation, wantAllocation)
	}

	allocationSum := decimal.Zero
	for _, row := range summary.Rows {
		allocationSum = allocationSum.Add(row.Allocation)
	}
	if allocationSum.Round(6).Cmp(dec("100")) != 0 {
		t.Errorf("allocations sum to %s, want 100", allocationSum)
	}
}

func TestSummaryToleratesPartialQuoteFailure(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	holdings := []*domain.Holding{
		holding(1, "AAPL", "10", "150", base),
		holding(2, "MSFT", "5", "400", base.Add(time.Hour)),
	}
	market := &stubMarket{
		prices:  map[string]string{"AAPL": "170"},
		failing: map[string]bool{"MSFT": true},
	}

	summary, err := newTestAggregator(holdings, market).Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("one bad quote failed the whole summary: %v", err)
	}

	if len(summary.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (failed row still renders)", len(summary.Rows))
	}

	msft := summary.Rows[1]
	if msft.CurrentPrice != nil {
		t.Errorf("MSFT price = %s, want nil", msft.CurrentPrice)
	}
	if !msft.Stale {
		t.Error("row without quote must carry the stale flag")
	}
	if !msft.Allocation.IsZero() {
		t.Errorf("MSFT allocation = %s, want 0", msft.Allocation)
	}

	// Totals cover only the priced rows.
	if !summary.TotalMarketValue.Equal(dec("1700")) {
		t.Errorf("total market value = %s, want 1700", summary.TotalMarketValue)
	}
	if summary.Rows[0].Allocation.Round(6).Cmp(dec("100")) != 0 {
		t.Errorf("AAPL allocation = %s, want 100", summary.Rows[0].Allocation)
	}
}

func TestSummaryCarriesStaleFlag(t *testing.T) {
	holdings := []*domain.Holding{holding(1, "AAPL", "10", "150", time.Now())}
	market := &stubMarket{
		prices: map[string]string{"AAPL": "165"},
		stale:  map[string]bool{"AAPL": true},
	}

	summary, err := newTestAggregator(holdings, market).Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := summary.Rows[0]
	if !row.Stale {
		t.Error("stale quote not flagged on the row")
	}
	if row.CurrentPrice == nil || !row.CurrentPrice.Equal(dec("165")) {
		t.Errorf("stale row must still carry the last-known price, got %v", row.CurrentPrice)
	}
}

func TestSummaryExcludesClosedPositions(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	holdings := []*domain.Holding{
		holding(1, "AAPL", "10", "150", base),
		holding(2, "SOLD", "0", "0", base.Add(time.Hour)),
	}
	market := &stubMarket{prices: map[string]string{"AAPL": "170", "SOLD": "1"}}

	summary, err := newTestAggregator(holdings, market).Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Rows) != 1 || summary.Rows[0].Symbol != "AAPL" {
		t.Errorf("closed position leaked into valuation: %+v", summary.Rows)
	}
}

func TestSummaryUnknownPortfolio(t *testing.T) {
	a := newTestAggregator(nil, &stubMarket{})

	if _, err := a.Summary(context.Background(), 42); !errors.Is(err, dasherrs.ErrPortfolioNotFound) {
		t.Fatalf("err = %v, want ErrPortfolioNotFound", err)
	}
}
