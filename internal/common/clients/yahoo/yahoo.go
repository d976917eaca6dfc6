// Package yahoo fetches market quotes from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// FetchQuote loads a single quote. Price fields are tried in order of
// preference: the live market price first, the previous close as fallback
// for symbols outside trading hours.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("yahoo quote %s: not found", symbol)
	}

	price := q.RegularMarketPrice
	if price == 0 {
		price = q.RegularMarketPreviousClose
	}
	if price == 0 {
		return nil, fmt.Errorf("yahoo quote %s: no usable price", symbol)
	}

	return &domain.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(price),
		PreviousClose: decimal.NewFromFloat(q.RegularMarketPreviousClose),
		Currency:      q.CurrencyID,
		FetchedAt:     time.Now(),
	}, nil
}
