package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type HoldingsRepository interface {
	// GetHoldingBySymbol returns (nil, nil) when the portfolio has no
	// position in the symbol.
	GetHoldingBySymbol(ctx context.Context, portfolioID int64, symbol string) (*Holding, error)
	// GetHoldingsByPortfolio returns holdings in creation order (created_at,
	// then id). The presentation layer relies on this order being stable
	// across refreshes.
	GetHoldingsByPortfolio(ctx context.Context, portfolioID int64) ([]*Holding, error)
	GetHeldSymbols(ctx context.Context) ([]string, error)
	// CreateHoldingWithTransaction inserts the holding and its opening BUY
	// transaction in a single storage transaction.
	CreateHoldingWithTransaction(ctx context.Context, holding *Holding, transaction *Transaction) (*Holding, error)
	// UpdateHoldingWithTransaction applies new quantity/average cost and
	// appends the causing transaction atomically. A failure leaves both
	// the holding and its transaction log untouched.
	UpdateHoldingWithTransaction(ctx context.Context, holding *Holding, transaction *Transaction) error
	UpdateHolding(ctx context.Context, id int64, quantity, averageCost decimal.Decimal) error
	// DeleteHolding cascades to the holding's transactions.
	DeleteHolding(ctx context.Context, id int64) error
}

// Holding is a portfolio's position in one symbol. Quantity and AverageCost
// always equal the replay of the holding's transaction log under the
// weighted-average cost rule. AverageCost is meaningless while Quantity is
// zero and is stored as zero until a new BUY re-establishes it.
type Holding struct {
	ID          int64 `json:"id"`
	PortfolioID int64 `json:"portfolio_id"`

	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`

	FirstPurchaseAt time.Time `json:"first_purchase_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CostBasis is the total amount paid for the current position.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}
