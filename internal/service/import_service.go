package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fiscal-sentinel/internal/dto"
	"fiscal-sentinel/internal/importer"
	"fiscal-sentinel/internal/models"
	"fiscal-sentinel/internal/repository"
	"fiscal-sentinel/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrNothingToImport = errors.New("no importable rows found")
)

type ImportService struct {
	txRepo   *repository.TransactionRepository
	previews *PreviewStore
	cfg      *config.ImportConfig
	logger   *zap.Logger
}

func NewImportService(
	txRepo *repository.TransactionRepository,
	previews *PreviewStore,
	cfg *config.ImportConfig,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		txRepo:   txRepo,
		previews: previews,
		cfg:      cfg,
		logger:   logger,
	}
}

// Preview parses an uploaded file and stashes the result for a later
// confirm call. Nothing reaches the transactions table yet.
func (s *ImportService) Preview(ctx context.Context, userID uuid.UUID, fileName string, data []byte) (*dto.PreviewResponse, error) {
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return nil, ErrFileTooLarge
	}

	parsed, err := importer.Parse(fileName, data)
	if err != nil {
		return nil, err
	}

	suggestion := importer.SuggestMapping(parsed.Columns)

	preview := &models.Preview{
		UserID:           userID.String(),
		FileName:         fileName,
		Source:           parsed.Source,
		Columns:          parsed.Columns,
		Rows:             parsed.Rows,
		SuggestedMapping: suggestion.Mapping,
		CreatedAt:        time.Now(),
	}

	previewID, err := s.previews.Save(preview)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Import preview created",
		zap.String("preview_id", previewID),
		zap.String("file", fileName),
		zap.Int("rows", len(parsed.Rows)),
	)

	return &dto.PreviewResponse{
		PreviewID:        previewID,
		Columns:          parsed.Columns,
		SampleRows:       sampleRows(parsed.Rows, s.cfg.SampleRows),
		SuggestedMapping: suggestion.Mapping,
		Source:           parsed.Source,
		Schema:           importer.InferSchema(parsed),
		ConfidenceStats:  confidenceStats(suggestion.Confidence),
	}, nil
}

// Confirm finalizes a previewed import: the stored rows are converted with
// the submitted mapping and written in one batch. The preview is deleted
// afterwards, so a repeated confirm with the same id fails.
func (s *ImportService) Confirm(ctx context.Context, userID uuid.UUID, req *dto.ConfirmRequest) (*dto.ImportResultResponse, error) {
	preview, err := s.previews.Load(req.PreviewID)
	if err != nil {
		return nil, err
	}
	if preview.UserID != userID.String() {
		return nil, ErrPreviewNotFound
	}

	mapping := req.Mapping
	if mapping == nil {
		mapping = preview.SuggestedMapping
	}

	parsed := &importer.Parsed{
		Columns: preview.Columns,
		Rows:    preview.Rows,
		Source:  preview.Source,
	}
	if err := importer.ValidateMapping(mapping, parsed.Columns); err != nil {
		return nil, err
	}

	count, err := s.persist(ctx, userID, parsed, mapping)
	if err != nil {
		return nil, err
	}

	s.previews.Delete(req.PreviewID)

	s.logger.Info("Import confirmed",
		zap.String("preview_id", req.PreviewID),
		zap.Int("count", count),
	)

	return &dto.ImportResultResponse{Count: count}, nil
}

// DirectUpload is the trusted-file shortcut: parse, auto-map and persist in
// a single call with no intermediate preview.
func (s *ImportService) DirectUpload(ctx context.Context, userID uuid.UUID, fileName string, data []byte) (*dto.ImportResultResponse, error) {
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return nil, ErrFileTooLarge
	}

	parsed, err := importer.Parse(fileName, data)
	if err != nil {
		return nil, err
	}

	suggestion := importer.SuggestMapping(parsed.Columns)
	count, err := s.persist(ctx, userID, parsed, suggestion.Mapping)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Direct upload imported",
		zap.String("file", fileName),
		zap.Int("count", count),
	)

	return &dto.ImportResultResponse{Count: count}, nil
}

func (s *ImportService) persist(ctx context.Context, userID uuid.UUID, parsed *importer.Parsed, mapping map[string]string) (int, error) {
	records := importer.Convert(parsed, mapping)
	if len(records) == 0 {
		return 0, ErrNothingToImport
	}

	now := time.Now()
	transactions := make([]*models.Transaction, len(records))
	for i, record := range records {
		transactions[i] = &models.Transaction{
			ID:        uuid.New(),
			UserID:    userID,
			Date:      record.Date,
			Merchant:  sanitizeUTF8(record.Merchant),
			Amount:    record.Amount,
			Currency:  "USD",
			Category:  record.Category,
			Notes:     sanitizeUTF8(record.Notes),
			Source:    parsed.Source,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.txRepo.CreateBatch(ctx, transactions); err != nil {
		return 0, fmt.Errorf("failed to save transactions: %w", err)
	}

	return len(transactions), nil
}

func sampleRows(rows []map[string]string, limit int) []map[string]string {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}

func confidenceStats(confidence map[string]float64) dto.ConfidenceStats {
	stats := dto.ConfidenceStats{Count: len(confidence)}
	if stats.Count == 0 {
		return stats
	}

	first := true
	var sum float64
	for _, score := range confidence {
		sum += score
		if first || score < stats.Min {
			stats.Min = score
		}
		if first || score > stats.Max {
			stats.Max = score
		}
		first = false
	}
	stats.Avg = sum / float64(stats.Count)
	return stats
}
