package repository

import (
	"context"

	"fiscal-sentinel/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns("id", "user_id", "date", "merchant", "amount", "currency", "category", "notes", "source", "created_at", "updated_at").
		Values(tx.ID, tx.UserID, tx.Date, tx.Merchant, tx.Amount, tx.Currency, tx.Category, tx.Notes, tx.Source, tx.CreatedAt, tx.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").
		Columns("id", "user_id", "date", "merchant", "amount", "currency", "category", "notes", "source", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, tx := range transactions {
		builder = builder.Values(tx.ID, tx.UserID, tx.Date, tx.Merchant, tx.Amount, tx.Currency, tx.Category, tx.Notes, tx.Source, tx.CreatedAt, tx.UpdatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	query := squirrel.Select("id", "user_id", "date", "merchant", "amount", "currency", "category", "notes", "source", "created_at", "updated_at").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Date, &tx.Merchant, &tx.Amount, &tx.Currency, &tx.Category, &tx.Notes, &tx.Source, &tx.CreatedAt, &tx.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	return transactions, nil
}
