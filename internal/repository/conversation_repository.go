package repository

import (
	"context"
	"encoding/json"

	"fiscal-sentinel/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ConversationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConversationRepository(db *pgxpool.Pool, logger *zap.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return err
	}

	query := squirrel.Insert("conversations").
		Columns("id", "user_id", "messages", "created_at", "updated_at").
		Values(conv.ID, conv.UserID, messages, conv.CreatedAt, conv.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := squirrel.Select("id", "user_id", "messages", "created_at", "updated_at").
		From("conversations").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var conv models.Conversation
	var messages []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&conv.ID, &conv.UserID, &messages, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(messages, &conv.Messages); err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *ConversationRepository) UpdateMessages(ctx context.Context, conv *models.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return err
	}

	query := squirrel.Update("conversations").
		Set("messages", messages).
		Set("updated_at", conv.UpdatedAt).
		Where(squirrel.Eq{"id": conv.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
