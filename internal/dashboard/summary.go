// Package dashboard composes holdings with cached quotes into the valuation
// summaries the presentation layer renders.
package dashboard

import (
	"context"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/mydash-app/mydash/pkg/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var oneHundred = decimal.NewFromInt(100)

// QuoteGetter is the slice of the market-data facade the aggregator needs.
type QuoteGetter interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, bool, error)
}

type Aggregator struct {
	portfolios domain.PortfoliosRepository
	holdings   domain.HoldingsRepository
	market     QuoteGetter

	now func() time.Time
}

func NewAggregator(portfolios domain.PortfoliosRepository, holdings domain.HoldingsRepository, market QuoteGetter) *Aggregator {
	return &Aggregator{
		portfolios: portfolios,
		holdings:   holdings,
		market:     market,
		now:        time.Now,
	}
}

// Row is one holding's valuation. CurrentPrice is nil when no quote, cached
// or fresh, is available; such a row still renders with Stale set and a zero
// market value, and is left out of the allocation denominator.
type Row struct {
	HoldingID int64
	Symbol    string

	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	CostBasis   decimal.Decimal

	CurrentPrice   *decimal.Decimal
	MarketValue    decimal.Decimal
	UnrealizedGain decimal.Decimal
	DayGain        decimal.Decimal
	Allocation     decimal.Decimal

	Stale bool
}

type PortfolioSummary struct {
	PortfolioID int64
	Name        string

	// Rows keep the holdings' creation order (created_at, then id), so row
	// selection in the UI survives refreshes.
	Rows []*Row

	TotalMarketValue    decimal.Decimal
	TotalCostBasis      decimal.Decimal
	TotalUnrealizedGain decimal.Decimal
	TotalDayGain        decimal.Decimal
	ChangePercent       decimal.Decimal

	GeneratedAt time.Time
}

// Summary values every open position of the portfolio. Holdings with zero
// quantity are excluded from valuation but kept in history. A quote failure
// on one symbol degrades that row only; the rest of the summary renders.
func (a *Aggregator) Summary(ctx context.Context, portfolioID int64) (*PortfolioSummary, error) {
	portfolio, err := a.portfolios.GetPortfolioByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, dasherrs.ErrPortfolioNotFound
	}

	holdings, err := a.holdings.GetHoldingsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	summary := &PortfolioSummary{
		PortfolioID: portfolio.ID,
		Name:        portfolio.Name,
		Rows:        []*Row{},
		GeneratedAt: a.now(),
	}

	for _, holding := range holdings {
		if holding.Quantity.IsZero() {
			continue
		}

		row := &Row{
			HoldingID:   holding.ID,
			Symbol:      holding.Symbol,
			Quantity:    holding.Quantity,
			AverageCost: holding.AverageCost,
			CostBasis:   holding.CostBasis(),
		}
		summary.TotalCostBasis = summary.TotalCostBasis.Add(row.CostBasis)

		quote, stale, err := a.market.Quote(ctx, holding.Symbol)
		if err != nil {
			log.Warn("quote unavailable, rendering row without price",
				zap.String("symbol", holding.Symbol),
				zap.Error(err),
			)

			row.Stale = true
			summary.Rows = append(summary.Rows, row)
			continue
		}

		price := quote.Price
		row.CurrentPrice = &price
		row.Stale = stale
		row.MarketValue = holding.Quantity.Mul(price)
		row.UnrealizedGain = holding.Quantity.Mul(price.Sub(holding.AverageCost))
		if quote.PreviousClose.IsPositive() {
			row.DayGain = holding.Quantity.Mul(price.Sub(quote.PreviousClose))
		}

		summary.TotalMarketValue = summary.TotalMarketValue.Add(row.MarketValue)
		summary.TotalUnrealizedGain = summary.TotalUnrealizedGain.Add(row.UnrealizedGain)
		summary.TotalDayGain = summary.TotalDayGain.Add(row.DayGain)

		summary.Rows = append(summary.Rows, row)
	}

	if summary.TotalMarketValue.IsPositive() {
		for _, row := range summary.Rows {
			if row.CurrentPrice == nil {
				continue
			}

			row.Allocation = row.MarketValue.Div(summary.TotalMarketValue).Mul(oneHundred)
		}
	}

	if previous := summary.TotalMarketValue.Sub(summary.TotalDayGain); previous.IsPositive() {
		summary.ChangePercent = summary.TotalDayGain.Div(previous).Mul(oneHundred)
	}

	return summary, nil
}

// Overview summarizes every portfolio; one failing portfolio is skipped with
// a warning rather than failing the whole refresh cycle.
func (a *Aggregator) Overview(ctx context.Context) ([]*PortfolioSummary, error) {
	portfolios, err := a.portfolios.GetAllPortfolios(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*PortfolioSummary, 0, len(portfolios))
	for _, portfolio := range portfolios {
		summary, err := a.Summary(ctx, portfolio.ID)
		if err != nil {
			log.Warn("portfolio summary failed",
				zap.Int64("portfolio_id", portfolio.ID),
				zap.Error(err),
			)
			continue
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}
