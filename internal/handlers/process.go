package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"maildesk/internal/models"
	"maildesk/internal/processor"

	"github.com/labstack/echo/v4"
)

// pipeline is the slice of the processor the HTTP layer can trigger
type pipeline interface {
	RunOnce(ctx context.Context) (models.RunSummary, error)
	ProcessMessage(ctx context.Context, msg models.InboundMessage) (*models.Case, error)
}

// ProcessHandler triggers a pipeline run on demand
// @Summary Trigger a processing run
// @Description Fetches unread mail and drives every message through the pipeline
// @Tags pipeline
// @Produce json
// @Success 200 {object} models.ProcessResponse
// @Failure 409 {object} models.ProcessResponse
// @Failure 500 {object} models.ProcessResponse
// @Router /api/process [post]
func ProcessHandler(p pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := p.RunOnce(c.Request().Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, processor.ErrRunInProgress) {
				status = http.StatusConflict
			}
			return c.JSON(status, models.ProcessResponse{
				Success: false,
				Summary: summary,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.ProcessResponse{
			Success: true,
			Summary: summary,
		})
	}
}

// SimulateHandler runs a synthetic message through the pipeline
// @Summary Simulate an inbound email
// @Description Classifies, drafts and decides a synthetic message without touching the mailbox
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body models.SimulateRequest true "Simulated message"
// @Success 200 {object} models.SimulateResponse
// @Failure 400 {object} models.SimulateResponse
// @Failure 500 {object} models.SimulateResponse
// @Router /api/simulate [post]
func SimulateHandler(p pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SimulateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.SimulateResponse{
				Success: false,
				Error:   "invalid request body",
			})
		}
		if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.Body) == "" {
			return c.JSON(http.StatusBadRequest, models.SimulateResponse{
				Success: false,
				Error:   "from and body are required",
			})
		}

		msg := models.InboundMessage{
			ExternalID: "sim-" + strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", ""),
			From:       req.From,
			Subject:    req.Subject,
			Body:       req.Body,
			ReceivedAt: time.Now().UTC(),
		}

		kase, err := p.ProcessMessage(c.Request().Context(), msg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.SimulateResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.SimulateResponse{
			Success: true,
			CaseID:  kase.ID,
			State:   kase.State,
		})
	}
}
