// Package ledger owns holdings and their transaction logs, applying buy and
// sell mutations under the weighted-average cost rule.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/mydash-app/mydash/pkg/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Ledger struct {
	holdings     domain.HoldingsRepository
	transactions domain.TransactionsRepository

	// Mutations on one holding must not interleave or the average-cost
	// invariant breaks, so each (portfolio, symbol) pair gets its own lock.
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func New(holdings domain.HoldingsRepository, transactions domain.TransactionsRepository) *Ledger {
	return &Ledger{
		holdings:     holdings,
		transactions: transactions,
		locks:        make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

// SellResult reports the holding state after a sell plus the realized gain
// of the disposed shares: quantity * (price - average cost).
type SellResult struct {
	Holding      *domain.Holding
	RealizedGain decimal.Decimal
}

// RecordBuy creates the holding on first purchase or folds the purchase into
// the weighted average:
//
//	new_avg = (old_qty*old_avg + qty*price) / (old_qty + qty)
//
// The BUY transaction is appended in the same storage transaction as the
// holding write. A zero executedAt means now.
func (l *Ledger) RecordBuy(ctx context.Context, portfolioID int64, symbol string, quantity, price decimal.Decimal, executedAt time.Time) (*domain.Holding, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(quantity, price); err != nil {
		return nil, err
	}

	if executedAt.IsZero() {
		executedAt = l.now()
	}

	unlock := l.lockHolding(portfolioID, symbol)
	defer unlock()

	existing, err := l.holdings.GetHoldingBySymbol(ctx, portfolioID, symbol)
	if err != nil {
		return nil, err
	}

	transaction := &domain.Transaction{
		Kind:       domain.TransactionKindBuy,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: executedAt,
	}

	if existing == nil {
		holding := &domain.Holding{
			PortfolioID:     portfolioID,
			Symbol:          symbol,
			Quantity:        quantity,
			AverageCost:     price,
			FirstPurchaseAt: executedAt,
		}

		created, err := l.holdings.CreateHoldingWithTransaction(ctx, holding, transaction)
		if err != nil {
			return nil, err
		}

		log.Info("holding opened",
			zap.Int64("portfolio_id", portfolioID),
			zap.String("symbol", symbol),
			zap.String("quantity", quantity.String()),
			zap.String("price", price.String()),
		)

		return created, nil
	}

	existing.Quantity, existing.AverageCost = applyBuy(existing.Quantity, existing.AverageCost, quantity, price)
	if executedAt.Before(existing.FirstPurchaseAt) {
		existing.FirstPurchaseAt = executedAt
	}
	transaction.HoldingID = existing.ID

	if err := l.holdings.UpdateHoldingWithTransaction(ctx, existing, transaction); err != nil {
		return nil, err
	}

	log.Info("buy recorded",
		zap.Int64("portfolio_id", portfolioID),
		zap.String("symbol", symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("average_cost", existing.AverageCost.String()),
	)

	return existing, nil
}

// RecordSell reduces the position without revaluing the remaining shares:
// average cost is held constant across partial sells. Selling the full
// position resets the average cost to zero until a new BUY re-establishes it.
func (l *Ledger) RecordSell(ctx context.Context, portfolioID int64, symbol string, quantity, price decimal.Decimal, executedAt time.Time) (*SellResult, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(quantity, price); err != nil {
		return nil, err
	}

	if executedAt.IsZero() {
		executedAt = l.now()
	}

	unlock := l.lockHolding(portfolioID, symbol)
	defer unlock()

	holding, err := l.holdings.GetHoldingBySymbol(ctx, portfolioID, symbol)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, dasherrs.ErrHoldingNotFound
	}

	if quantity.GreaterThan(holding.Quantity) {
		return nil, dasherrs.ErrInsufficientQuantity
	}

	realizedGain := quantity.Mul(price.Sub(holding.AverageCost))

	holding.Quantity = holding.Quantity.Sub(quantity)
	if holding.Quantity.IsZero() {
		holding.AverageCost = decimal.Zero
	}

	transaction := &domain.Transaction{
		HoldingID:  holding.ID,
		Kind:       domain.TransactionKindSell,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: executedAt,
	}

	if err := l.holdings.UpdateHoldingWithTransaction(ctx, holding, transaction); err != nil {
		return nil, err
	}

	log.Info("sell recorded",
		zap.Int64("portfolio_id", portfolioID),
		zap.String("symbol", symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("realized_gain", realizedGain.String()),
	)

	return &SellResult{Holding: holding, RealizedGain: realizedGain}, nil
}

// DeleteHolding removes the position and, through the gateway's cascade, its
// whole transaction log.
func (l *Ledger) DeleteHolding(ctx context.Context, portfolioID int64, symbol string) error {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}

	unlock := l.lockHolding(portfolioID, symbol)
	defer unlock()

	holding, err := l.holdings.GetHoldingBySymbol(ctx, portfolioID, symbol)
	if err != nil {
		return err
	}
	if holding == nil {
		return dasherrs.ErrHoldingNotFound
	}

	return l.holdings.DeleteHolding(ctx, holding.ID)
}

// History returns the holding's transaction log in execution order.
func (l *Ledger) History(ctx context.Context, holdingID int64) ([]*domain.Transaction, error) {
	return l.transactions.GetTransactionsByHolding(ctx, holdingID)
}

// VerifyHolding replays the holding's transaction log and reports whether the
// replayed (quantity, average cost) matches the stored state. Used for
// consistency checks and recovery.
func (l *Ledger) VerifyHolding(ctx context.Context, holding *domain.Holding) (bool, error) {
	transactions, err := l.transactions.GetTransactionsByHolding(ctx, holding.ID)
	if err != nil {
		return false, err
	}

	quantity, averageCost, err := RecomputeFromHistory(transactions)
	if err != nil {
		return false, err
	}

	return quantity.Equal(holding.Quantity) && averageCost.Equal(holding.AverageCost), nil
}

func (l *Ledger) lockHolding(portfolioID int64, symbol string) func() {
	key := fmt.Sprintf("%d:%s", portfolioID, symbol)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func applyBuy(oldQuantity, oldAverage, quantity, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	newQuantity := oldQuantity.Add(quantity)
	newAverage := oldQuantity.Mul(oldAverage).Add(quantity.Mul(price)).Div(newQuantity)

	return newQuantity, newAverage
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", dasherrs.ErrEmptySymbol
	}

	return symbol, nil
}

func validateAmounts(quantity, price decimal.Decimal) error {
	if !quantity.IsPositive() {
		return dasherrs.ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return dasherrs.ErrInvalidPrice
	}

	return nil
}
