package domain

import (
	"context"
	"time"
)

type PortfoliosRepository interface {
	CreatePortfolio(ctx context.Context, name string) (*Portfolio, error)
	GetPortfolioByID(ctx context.Context, id int64) (*Portfolio, error)
	GetAllPortfolios(ctx context.Context) ([]*Portfolio, error)
	RenamePortfolio(ctx context.Context, id int64, name string) error
	// DeletePortfolio removes the portfolio together with its holdings and
	// their transactions. The cascade is enforced by the storage schema, so
	// no orphaned child rows can survive the call.
	DeletePortfolio(ctx context.Context, id int64) error
}

type Portfolio struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
