package query

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lyftr/internal/constants"
	"lyftr/internal/logger"
	"lyftr/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/messages", h.ListMessages)
	router.GET("/stats", h.Stats)
}

func (h *Handler) ListMessages(c *gin.Context) {
	params, err := parseListParams(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Stats(c *gin.Context) {
	resp, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseListParams(c *gin.Context) (ListParams, error) {
	params := ListParams{
		Limit:      constants.DefaultListLimit,
		FromMSISDN: c.Query("from_msisdn"),
		Text:       c.Query("q"),
	}
	var violations []string

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			violations = append(violations, "limit: must be a non-negative integer")
		} else {
			params.Limit = limit
		}
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			violations = append(violations, "offset: must be a non-negative integer")
		} else {
			params.Offset = offset
		}
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			violations = append(violations, "since: must be an ISO-8601 timestamp with timezone")
		} else {
			params.Since = &since
		}
	}

	if len(violations) > 0 {
		return params, errors.ErrValidation.WithDetail("violations", violations)
	}
	return params, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if errors.IsValidation(err) {
		h.logger.WarnwCtx(c.Request.Context(), "Rejected query parameters",
			"error", fmt.Sprintf("%v", err), "path", c.Request.URL.Path)
	} else {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	}
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}
