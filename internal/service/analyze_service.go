package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fiscal-sentinel/internal/dto"
	"fiscal-sentinel/internal/models"
	"fiscal-sentinel/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("query must not be empty")

// transactionContextLimit caps how many recent transactions are summarized
// into the model prompt.
const transactionContextLimit = 50

// LLMReplier is the single boundary to the language model. The analysis
// logic behind it belongs to the model service, not to this package.
type LLMReplier interface {
	Reply(ctx context.Context, history []models.Message, transactionContext string) (string, error)
}

type AnalyzeService struct {
	convRepo     *repository.ConversationRepository
	txRepo       *repository.TransactionRepository
	llm          LLMReplier
	historyLimit int
	logger       *zap.Logger
}

func NewAnalyzeService(
	convRepo *repository.ConversationRepository,
	txRepo *repository.TransactionRepository,
	llm LLMReplier,
	historyLimit int,
	logger *zap.Logger,
) *AnalyzeService {
	return &AnalyzeService{
		convRepo:     convRepo,
		txRepo:       txRepo,
		llm:          llm,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Analyze runs one conversational turn: resolve the conversation, append
// the user message, ask the model and persist the assistant reply. The
// returned history is the authoritative transcript for the client.
func (s *AnalyzeService) Analyze(ctx context.Context, userID uuid.UUID, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	conv, err := s.resolveConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	// A brand-new conversation may inherit the transcript the client kept
	// locally before the server issued an identifier.
	if len(conv.Messages) == 0 && len(req.History) > 0 {
		conv.Messages = sanitizeHistory(req.History)
	}

	conv.Messages = capHistory(append(conv.Messages, models.Message{
		Role:    models.RoleUser,
		Content: query,
	}), s.historyLimit)

	answer, err := s.llm.Reply(ctx, conv.Messages, s.transactionContext(ctx, userID))
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	conv.Messages = capHistory(append(conv.Messages, models.Message{
		Role:    models.RoleAssistant,
		Content: sanitizeUTF8(answer),
	}), s.historyLimit)
	conv.UpdatedAt = time.Now()

	if err := s.convRepo.UpdateMessages(ctx, conv); err != nil {
		s.logger.Warn("Failed to persist conversation", zap.Error(err))
	}

	return &dto.AnalyzeResponse{
		Response:       answer,
		ConversationID: conv.ID.String(),
		History:        conv.Messages,
	}, nil
}

// resolveConversation loads the referenced conversation or creates a fresh
// one. An identifier the caller does not own starts a new conversation
// instead of failing the turn.
func (s *AnalyzeService) resolveConversation(ctx context.Context, userID uuid.UUID, conversationID string) (*models.Conversation, error) {
	if conversationID != "" {
		if id, err := uuid.Parse(conversationID); err == nil {
			conv, err := s.convRepo.GetByID(ctx, id)
			if err == nil && conv.UserID == userID {
				return conv, nil
			}
		}
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *AnalyzeService) transactionContext(ctx context.Context, userID uuid.UUID) string {
	transactions, err := s.txRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load transactions for context", zap.Error(err))
		return ""
	}
	if len(transactions) > transactionContextLimit {
		transactions = transactions[:transactionContextLimit]
	}

	var b strings.Builder
	for _, tx := range transactions {
		fmt.Fprintf(&b, "%s | %s | %s %s | %s\n",
			tx.Date.Format("2006-01-02"), tx.Merchant, tx.Amount.StringFixed(2), tx.Currency, tx.Category)
	}
	return b.String()
}

func sanitizeHistory(history []models.Message) []models.Message {
	cleaned := make([]models.Message, 0, len(history))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
			continue
		}
		cleaned = append(cleaned, models.Message{Role: msg.Role, Content: sanitizeUTF8(content)})
	}
	return cleaned
}

func capHistory(messages []models.Message, limit int) []models.Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
