package service

import (
	"context"
	"fmt"
	"strings"

	"fiscal-sentinel/internal/models"
	"fiscal-sentinel/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const systemInstruction = `You are Fiscal Sentinel, a personal finance assistant. You answer questions
about the user's transactions: totals, merchants, categories, recurring
charges, unusual activity. Ground every answer in the transaction summary
provided with the request. If the data does not cover the question, say so
instead of guessing. Keep answers short and concrete; use plain currency
formatting.`

type LLMService struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = systemInstruction
	model.Temperature = 0.3

	return &LLMService{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Reply generates an assistant turn from the conversation history and the
// transaction context block. History is flattened into a single prompt,
// the same way the rest of this service talks to the model.
func (s *LLMService) Reply(ctx context.Context, history []models.Message, transactionContext string) (string, error) {
	var prompt strings.Builder
	if transactionContext != "" {
		prompt.WriteString("Transaction summary for this conversation:\n")
		prompt.WriteString(transactionContext)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Conversation so far:\n")
	for _, msg := range history {
		prompt.WriteString(string(msg.Role))
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nReply to the last user message.")

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt.String()},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
