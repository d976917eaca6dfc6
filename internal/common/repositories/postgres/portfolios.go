package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/mydash-app/mydash/pkg/errs"
)

type portfoliosRepository struct {
	psql *pgxpool.Pool
}

func NewPortfoliosRepository(pool *pgxpool.Pool) domain.PortfoliosRepository {
	return &portfoliosRepository{
		psql: pool,
	}
}

func (pr *portfoliosRepository) CreatePortfolio(ctx context.Context, name string) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dasherrs.ErrEmptyPortfolioName
	}

	query := `INSERT INTO mydash.portfolios(name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at`
	portfolio := &Portfolio{}
	if err := pr.psql.QueryRow(ctx, query, name).Scan(
		&portfolio.ID,
		&portfolio.Name,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	); err != nil {
		return nil, errs.NewStack(err)
	}

	return portfolio.CreateDomain(), nil
}

func (pr *portfoliosRepository) GetPortfolioByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	query := `SELECT
			id,
			name,
			created_at,
			updated_at
		FROM mydash.portfolios WHERE id = $1`
	portfolio := &Portfolio{}
	if err := pr.psql.QueryRow(ctx, query, id).Scan(
		&portfolio.ID,
		&portfolio.Name,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, errs.NewStack(err)
	}

	return portfolio.CreateDomain(), nil
}

func (pr *portfoliosRepository) GetAllPortfolios(ctx context.Context) ([]*domain.Portfolio, error) {
	query := `SELECT
			id,
			name,
			created_at,
			updated_at
		FROM mydash.portfolios
		ORDER BY name ASC`
	rows, err := pr.psql.Query(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*domain.Portfolio{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	portfolios := []*domain.Portfolio{}
	for rows.Next() {
		portfolio := &Portfolio{}
		if err := rows.Scan(
			&portfolio.ID,
			&portfolio.Name,
			&portfolio.CreatedAt,
			&portfolio.UpdatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		portfolios = append(portfolios, portfolio.CreateDomain())
	}

	return portfolios, nil
}

func (pr *portfoliosRepository) RenamePortfolio(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dasherrs.ErrEmptyPortfolioName
	}

	query := `UPDATE mydash.portfolios
		SET name = $1,
			updated_at = now()
		WHERE id = $2`
	tag, err := pr.psql.Exec(ctx, query, name, id)
	if err != nil {
		return errs.NewStack(err)
	}

	if tag.RowsAffected() == 0 {
		return dasherrs.ErrPortfolioNotFound
	}

	return nil
}

// DeletePortfolio relies on the ON DELETE CASCADE constraints of
// mydash.holdings and mydash.transactions, so one statement removes the
// portfolio and every dependent row atomically.
func (pr *portfoliosRepository) DeletePortfolio(ctx context.Context, id int64) error {
	query := `DELETE FROM mydash.portfolios WHERE id = $1`
	tag, err := pr.psql.Exec(ctx, query, id)
	if err != nil {
		return errs.NewStack(err)
	}

	if tag.RowsAffected() == 0 {
		return dasherrs.ErrPortfolioNotFound
	}

	return nil
}
