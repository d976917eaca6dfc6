package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/pkg/errs"
)

type transactionsRepository struct {
	psql *pgxpool.Pool
}

func NewTransactionsRepository(pool *pgxpool.Pool) domain.TransactionsRepository {
	return &transactionsRepository{
		psql: pool,
	}
}

func (tr *transactionsRepository) GetTransactionsByHolding(ctx context.Context, holdingID int64) ([]*domain.Transaction, error) {
	query := `SELECT
			id,
			holding_id,
			kind,
			quantity::text,
			price::text,
			executed_at,
			created_at
		FROM mydash.transactions
		WHERE holding_id = $1
		ORDER BY executed_at ASC, id ASC`
	rows, err := tr.psql.Query(ctx, query, holdingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*domain.Transaction{}, nil
		}

		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction := &Transaction{}
		if err := rows.Scan(
			&transaction.ID,
			&transaction.HoldingID,
			&transaction.Kind,
			&transaction.Quantity,
			&transaction.Price,
			&transaction.ExecutedAt,
			&transaction.CreatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		domainTransaction, err := transaction.CreateDomain()
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, domainTransaction)
	}

	return transactions, nil
}

func (tr *transactionsRepository) AppendTransaction(ctx context.Context, transaction *domain.Transaction) error {
	query := `INSERT INTO mydash.transactions(
			holding_id,
			kind,
			quantity,
			price,
			executed_at
		)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tr.psql.Exec(ctx,
		query,
		transaction.HoldingID,
		transaction.Kind,
		transaction.Quantity.String(),
		transaction.Price.String(),
		transaction.ExecutedAt,
	)
	if err != nil {
		return errs.NewStack(err)
	}

	return nil
}
