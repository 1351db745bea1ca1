package ingestion

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lyftr/internal/constants"
	"lyftr/internal/logger"
	"lyftr/pkg/errors"
	"lyftr/pkg/middleware"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook", h.Webhook)
}

func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.handleError(c, errors.ErrInternal.WithCause(err))
		return
	}

	signature := c.GetHeader(constants.SignatureHeader)
	result, err := h.service.Ingest(c.Request.Context(), body, signature)

	webhookLog := map[string]interface{}{}
	if result != nil {
		webhookLog["result"] = string(result.Outcome)
		if result.MessageID != "" {
			webhookLog["message_id"] = result.MessageID
			webhookLog["dup"] = result.Duplicate
		}
	}
	c.Set(middleware.WebhookLogKey, webhookLog)

	if err != nil {
		h.handleError(c, err)
		return
	}

	// Duplicates succeed like first deliveries so the sender never retries
	// a message that is already stored.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}
