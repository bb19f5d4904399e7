package handlers

import (
	"errors"
	"io"
	"time"

	"fiscal-sentinel/internal/dto"
	"fiscal-sentinel/internal/importer"
	"fiscal-sentinel/internal/models"
	"fiscal-sentinel/internal/repository"
	"fiscal-sentinel/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txRepo        *repository.TransactionRepository
	importService *service.ImportService
	logger        *zap.Logger
}

func NewTransactionHandler(
	txRepo *repository.TransactionRepository,
	importService *service.ImportService,
	logger *zap.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		txRepo:        txRepo,
		importService: importService,
		logger:        logger,
	}
}

// List godoc
// @Summary List the authenticated user's transactions
// @Tags transactions
// @Produce json
// @Success 200 {array} dto.TransactionResponse
// @Security Bearer
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid user identity",
		})
	}

	transactions, err := h.txRepo.ListByUserID(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to list transactions",
		})
	}

	responses := make([]dto.TransactionResponse, len(transactions))
	for i, tx := range transactions {
		responses[i] = toTransactionResponse(tx)
	}

	return c.JSON(responses)
}

// Preview godoc
// @Summary Parse an uploaded file without committing it
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Transaction file"
// @Success 200 {object} dto.PreviewResponse
// @Security Bearer
// @Router /transactions/preview [post]
func (h *TransactionHandler) Preview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid user identity",
		})
	}

	fileName, data, err := h.readUpload(c)
	if err != nil {
		return importError(c, err)
	}

	resp, err := h.importService.Preview(c.Context(), userID, fileName, data)
	if err != nil {
		h.logger.Warn("Preview failed", zap.String("file", fileName), zap.Error(err))
		return importError(c, err)
	}

	return c.JSON(resp)
}

// Confirm godoc
// @Summary Commit a previewed import with the submitted mapping
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.ConfirmRequest true "Confirm request"
// @Success 200 {object} dto.ImportResultResponse
// @Security Bearer
// @Router /transactions/confirm [post]
func (h *TransactionHandler) Confirm(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid user identity",
		})
	}

	var req dto.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if req.PreviewID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "preview_id is required",
		})
	}

	resp, err := h.importService.Confirm(c.Context(), userID, &req)
	if err != nil {
		h.logger.Warn("Confirm failed", zap.String("preview_id", req.PreviewID), zap.Error(err))
		return importError(c, err)
	}

	return c.JSON(resp)
}

// Upload godoc
// @Summary Import a file directly, skipping the preview round trip
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Transaction file"
// @Success 200 {object} dto.ImportResultResponse
// @Security Bearer
// @Router /transactions/upload [post]
func (h *TransactionHandler) Upload(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid user identity",
		})
	}

	fileName, data, err := h.readUpload(c)
	if err != nil {
		return importError(c, err)
	}

	resp, err := h.importService.DirectUpload(c.Context(), userID, fileName, data)
	if err != nil {
		h.logger.Warn("Direct upload failed", zap.String("file", fileName), zap.Error(err))
		return importError(c, err)
	}

	return c.JSON(resp)
}

var errMissingFile = errors.New("file field is required")

func (h *TransactionHandler) readUpload(c *fiber.Ctx) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, errMissingFile
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	return header.Filename, data, nil
}

func importError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrFileTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, service.ErrPreviewNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, errMissingFile),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrBadFile),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrInvalidField),
		errors.Is(err, importer.ErrUnknownColumn),
		errors.Is(err, service.ErrNothingToImport):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Import failed"})
	}
}

func toTransactionResponse(tx *models.Transaction) dto.TransactionResponse {
	amount, _ := tx.Amount.Float64()
	return dto.TransactionResponse{
		ID:        tx.ID.String(),
		Date:      tx.Date.Format("2006-01-02"),
		Merchant:  tx.Merchant,
		Amount:    amount,
		Currency:  tx.Currency,
		Category:  string(tx.Category),
		Notes:     tx.Notes,
		Source:    tx.Source,
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
	}
}
