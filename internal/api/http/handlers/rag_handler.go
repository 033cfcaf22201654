package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsmkit/helpdesk-service/internal/api/dto"
	"github.com/itsmkit/helpdesk-service/internal/service"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

// RagHandler proxies chat questions to the external RAG service.
type RagHandler struct {
	rag *service.RagService
}

// NewRagHandler constructs handler.
func NewRagHandler(ragService *service.RagService) *RagHandler {
	return &RagHandler{rag: ragService}
}

// Ask POST /rag/ask.
func (h *RagHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	answer, err := h.rag.Ask(c.Context(), req.Question)
	if err != nil {
		return err
	}
	return c.JSON(dto.AskResponse{Answer: answer})
}
