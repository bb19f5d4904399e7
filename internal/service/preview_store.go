package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fiscal-sentinel/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrPreviewNotFound = errors.New("preview not found or expired")

// PreviewStore keeps parsed-but-unconfirmed uploads as JSON files, one per
// preview id, between the preview and confirm calls.
type PreviewStore struct {
	dir    string
	logger *zap.Logger
}

func NewPreviewStore(dir string, logger *zap.Logger) *PreviewStore {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("Failed to create preview directory", zap.Error(err))
	}
	return &PreviewStore{
		dir:    dir,
		logger: logger,
	}
}

func (s *PreviewStore) Save(preview *models.Preview) (string, error) {
	previewID := strings.ReplaceAll(uuid.New().String(), "-", "")
	preview.ID = previewID

	data, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize preview: %w", err)
	}

	if err := os.WriteFile(s.path(previewID), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}

	return previewID, nil
}

func (s *PreviewStore) Load(previewID string) (*models.Preview, error) {
	data, err := os.ReadFile(s.path(previewID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPreviewNotFound
		}
		return nil, fmt.Errorf("failed to read preview: %w", err)
	}

	var preview models.Preview
	if err := json.Unmarshal(data, &preview); err != nil {
		return nil, fmt.Errorf("failed to parse preview: %w", err)
	}

	return &preview, nil
}

func (s *PreviewStore) Delete(previewID string) {
	if err := os.Remove(s.path(previewID)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to delete preview", zap.String("preview_id", previewID), zap.Error(err))
	}
}

func (s *PreviewStore) path(previewID string) string {
	// The id is generated locally, but never trust it as a path component
	return filepath.Join(s.dir, filepath.Base(previewID)+".json")
}
