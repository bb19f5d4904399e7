package handlers

import (
	"fiscal-sentinel/internal/dto"
	"fiscal-sentinel/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnalyzeHandler struct {
	analyzeService *service.AnalyzeService
	logger         *zap.Logger
}

func NewAnalyzeHandler(analyzeService *service.AnalyzeService, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzeService: analyzeService,
		logger:         logger,
	}
}

// Analyze godoc
// @Summary Run one conversational analysis turn
// @Tags analyze
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeRequest true "Analysis request"
// @Success 200 {object} dto.AnalyzeResponse
// @Security Bearer
// @Router /analyze [post]
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid user identity",
		})
	}

	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	resp, err := h.analyzeService.Analyze(c.Context(), userID, &req)
	if err != nil {
		if err == service.ErrEmptyQuery {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Query must not be empty",
			})
		}
		h.logger.Error("Analysis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Analysis failed",
		})
	}

	return c.JSON(resp)
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	return uuid.Parse(raw)
}
