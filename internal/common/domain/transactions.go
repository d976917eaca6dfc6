package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionsRepository interface {
	// GetTransactionsByHolding returns the holding's full log ordered by
	// execution time, then id.
	GetTransactionsByHolding(ctx context.Context, holdingID int64) ([]*Transaction, error)
	AppendTransaction(ctx context.Context, transaction *Transaction) error
}

// Transaction is one immutable BUY or SELL record. Rows are never updated
// after insertion and are removed only by the cascade when their holding or
// portfolio is deleted, so the log doubles as an audit trail from which the
// holding's state can be reconstructed.
type Transaction struct {
	ID        int64 `json:"id"`
	HoldingID int64 `json:"holding_id"`

	Kind     string          `json:"kind"` // TransactionKindBuy or TransactionKindSell
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`

	ExecutedAt time.Time `json:"executed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TotalValue is quantity times price.
func (t *Transaction) TotalValue() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
