package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/mydash-app/mydash/pkg/errs"
	"github.com/shopspring/decimal"
)

type holdingsRepository struct {
	psql *pgxpool.Pool
}

func NewHoldingsRepository(pool *pgxpool.Pool) domain.HoldingsRepository {
	return &holdingsRepository{
		psql: pool,
	}
}

func (hr *holdingsRepository) GetHoldingBySymbol(ctx context.Context, portfolioID int64, symbol string) (*domain.Holding, error) {
	query := `SELECT
			id,
			portfolio_id,
			symbol,
			quantity::text,
			average_cost::text,
			first_purchase_at,
			created_at,
			updated_at
		FROM mydash.holdings
		WHERE portfolio_id = $1 AND symbol = $2`
	holding := &Holding{}
	if err := hr.psql.QueryRow(ctx, query, portfolioID, symbol).Scan(
		&holding.ID,
		&holding.PortfolioID,
		&holding.Symbol,
		&holding.Quantity,
		&holding.AverageCost,
		&holding.FirstPurchaseAt,
		&holding.CreatedAt,
		&holding.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, errs.NewStack(err)
	}

	return holding.CreateDomain()
}

// GetHoldingsByPortfolio returns holdings in creation order. The order is
// part of the gateway contract: summary rows must stay put across refreshes.
func (hr *holdingsRepository) GetHoldingsByPortfolio(ctx context.Context, portfolioID int64) ([]*domain.Holding, error) {
	query := `SELECT
			id,
			portfolio_id,
			symbol,
			quantity::text,
			average_cost::text,
			first_purchase_at,
			created_at,
			updated_at
		FROM mydash.holdings
		WHERE portfolio_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := hr.psql.Query(ctx, query, portfolioID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*domain.Holding{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	holdings := []*domain.Holding{}
	for rows.Next() {
		holding := &Holding{}
		if err := rows.Scan(
			&holding.ID,
			&holding.PortfolioID,
			&holding.Symbol,
			&holding.Quantity,
			&holding.AverageCost,
			&holding.FirstPurchaseAt,
			&holding.CreatedAt,
			&holding.UpdatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		domainHolding, err := holding.CreateDomain()
		if err != nil {
			return nil, err
		}

		holdings = append(holdings, domainHolding)
	}

	return holdings, nil
}

func (hr *holdingsRepository) GetHeldSymbols(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT symbol
		FROM mydash.holdings
		WHERE quantity > 0
		ORDER BY symbol ASC`
	rows, err := hr.psql.Query(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []string{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errs.NewStack(err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func (hr *holdingsRepository) CreateHoldingWithTransaction(ctx context.Context, holding *domain.Holding, transaction *domain.Transaction) (*domain.Holding, error) {
	tx, err := hr.psql.Begin(ctx)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer tx.Rollback(ctx)

	insertHolding := `INSERT INTO mydash.holdings(
			portfolio_id,
			symbol,
			quantity,
			average_cost,
			first_purchase_at
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, portfolio_id, symbol, quantity::text, average_cost::text, first_purchase_at, created_at, updated_at`
	created := &Holding{}
	if err := tx.QueryRow(ctx,
		insertHolding,
		holding.PortfolioID,
		holding.Symbol,
		holding.Quantity.String(),
		holding.AverageCost.String(),
		holding.FirstPurchaseAt,
	).Scan(
		&created.ID,
		&created.PortfolioID,
		&created.Symbol,
		&created.Quantity,
		&created.AverageCost,
		&created.FirstPurchaseAt,
		&created.CreatedAt,
		&created.UpdatedAt,
	); err != nil {
		return nil, errs.NewStack(err)
	}

	insertTransaction := `INSERT INTO mydash.transactions(
			holding_id,
			kind,
			quantity,
			price,
			executed_at
		)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx,
		insertTransaction,
		created.ID,
		transaction.Kind,
		transaction.Quantity.String(),
		transaction.Price.String(),
		transaction.ExecutedAt,
	); err != nil {
		return nil, errs.NewStack(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.NewStack(err)
	}

	return created.CreateDomain()
}

// UpdateHoldingWithTransaction applies the new position and appends the
// causing BUY/SELL record in one storage transaction, so a failed append
// rolls the position back as well.
func (hr *holdingsRepository) UpdateHoldingWithTransaction(ctx context.Context, holding *domain.Holding, transaction *domain.Transaction) error {
	tx, err := hr.psql.Begin(ctx)
	if err != nil {
		return errs.NewStack(err)
	}
	defer tx.Rollback(ctx)

	updateHolding := `UPDATE mydash.holdings
		SET quantity = $1,
			average_cost = $2,
			first_purchase_at = $3,
			updated_at = now()
		WHERE id = $4`
	tag, err := tx.Exec(ctx,
		updateHolding,
		holding.Quantity.String(),
		holding.AverageCost.String(),
		holding.FirstPurchaseAt,
		holding.ID,
	)
	if err != nil {
		return errs.NewStack(err)
	}
	if tag.RowsAffected() == 0 {
		return dasherrs.ErrHoldingNotFound
	}

	insertTransaction := `INSERT INTO mydash.transactions(
			holding_id,
			kind,
			quantity,
			price,
			executed_at
		)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx,
		insertTransaction,
		holding.ID,
		transaction.Kind,
		transaction.Quantity.String(),
		transaction.Price.String(),
		transaction.ExecutedAt,
	); err != nil {
		return errs.NewStack(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (hr *holdingsRepository) UpdateHolding(ctx context.Context, id int64, quantity, averageCost decimal.Decimal) error {
	query := `UPDATE mydash.holdings
		SET quantity = $1,
			average_cost = $2,
			updated_at = now()
		WHERE id = $3`
	tag, err := hr.psql.Exec(ctx, query, quantity.String(), averageCost.String(), id)
	if err != nil {
		return errs.NewStack(err)
	}

	if tag.RowsAffected() == 0 {
		return dasherrs.ErrHoldingNotFound
	}

	return nil
}

// DeleteHolding cascades to the holding's transactions via the schema's
// foreign key constraint.
func (hr *holdingsRepository) DeleteHolding(ctx context.Context, id int64) error {
	query := `DELETE FROM mydash.holdings WHERE id = $1`
	tag, err := hr.psql.Exec(ctx, query, id)
	if err != nil {
		return errs.NewStack(err)
	}

	if tag.RowsAffected() == 0 {
		return dasherrs.ErrHoldingNotFound
	}

	return nil
}
