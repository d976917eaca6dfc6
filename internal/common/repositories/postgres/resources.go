package postgres

import (
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/pkg/errs"
	"github.com/shopspring/decimal"
)

type Portfolio struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Portfolio) CreateDomain() *domain.Portfolio {
	portfolio := &domain.Portfolio{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	return portfolio
}

// Holding scans NUMERIC columns as text; the decimal conversion happens in
// CreateDomain so no binary floating point ever touches stored amounts.
type Holding struct {
	ID          int64 `db:"id"`
	PortfolioID int64 `db:"portfolio_id"`

	Symbol      string `db:"symbol"`
	Quantity    string `db:"quantity"`
	AverageCost string `db:"average_cost"`

	FirstPurchaseAt time.Time `db:"first_purchase_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (h *Holding) CreateDomain() (*domain.Holding, error) {
	quantity, err := decimal.NewFromString(h.Quantity)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	averageCost, err := decimal.NewFromString(h.AverageCost)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	holding := &domain.Holding{
		ID:              h.ID,
		PortfolioID:     h.PortfolioID,
		Symbol:          h.Symbol,
		Quantity:        quantity,
		AverageCost:     averageCost,
		FirstPurchaseAt: h.FirstPurchaseAt,
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}

	return holding, nil
}

type Transaction struct {
	ID        int64 `db:"id"`
	HoldingID int64 `db:"holding_id"`

	Kind     string `db:"kind"`
	Quantity string `db:"quantity"`
	Price    string `db:"price"`

	ExecutedAt time.Time `db:"executed_at"`
	CreatedAt  time.Time `db:"created_at"`
}

func (t *Transaction) CreateDomain() (*domain.Transaction, error) {
	quantity, err := decimal.NewFromString(t.Quantity)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	transaction := &domain.Transaction{
		ID:         t.ID,
		HoldingID:  t.HoldingID,
		Kind:       t.Kind,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: t.ExecutedAt,
		CreatedAt:  t.CreatedAt,
	}

	return transaction, nil
}
