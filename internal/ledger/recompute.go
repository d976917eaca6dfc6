package ledger

import (
	"sort"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/shopspring/decimal"
)

// RecomputeFromHistory replays a transaction log in (executed_at, id) order
// and returns the resulting (quantity, average cost). It applies exactly the
// same formulas as the incremental RecordBuy/RecordSell path, so for any
// holding the replay of its full log reproduces the stored state.
func RecomputeFromHistory(transactions []*domain.Transaction) (decimal.Decimal, decimal.Decimal, error) {
	ordered := make([]*domain.Transaction, len(transactions))
	copy(ordered, transactions)

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ExecutedAt.Equal(ordered[j].ExecutedAt) {
			return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	quantity, averageCost := decimal.Zero, decimal.Zero

	for _, transaction := range ordered {
		switch transaction.Kind {
		case domain.TransactionKindBuy:
			quantity, averageCost = applyBuy(quantity, averageCost, transaction.Quantity, transaction.Price)

		case domain.TransactionKindSell:
			if transaction.Quantity.GreaterThan(quantity) {
				return decimal.Zero, decimal.Zero, dasherrs.ErrInsufficientQuantity
			}

			quantity = quantity.Sub(transaction.Quantity)
			if quantity.IsZero() {
				averageCost = decimal.Zero
			}

		default:
			return decimal.Zero, decimal.Zero, dasherrs.ErrUnknownTransaction
		}
	}

	return quantity, averageCost, nil
}
