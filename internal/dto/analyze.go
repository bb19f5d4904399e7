package dto

import "fiscal-sentinel/internal/models"

type AnalyzeRequest struct {
	Query          string           `json:"query"`
	ConversationID string           `json:"conversation_id,omitempty"`
	History        []models.Message `json:"history,omitempty"`
	Debug          bool             `json:"debug,omitempty"`
}

type AnalyzeResponse struct {
	Response       string           `json:"response"`
	ConversationID string           `json:"conversation_id,omitempty"`
	History        []models.Message `json:"history,omitempty"`
	Debug          interface{}      `json:"debug,omitempty"`
}
