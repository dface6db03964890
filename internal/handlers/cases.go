package handlers

import (
	"context"
	"net/http"

	"maildesk/internal/models"

	"github.com/labstack/echo/v4"
)

// queueStore is the read side of the case store used by the dashboard
type queueStore interface {
	PendingReview(ctx context.Context) ([]models.Case, error)
	Metrics(ctx context.Context) (models.QueueMetrics, error)
}

// QueueHandler lists cases awaiting human review together with queue metrics
// @Summary Review queue
// @Description Cases parked for human review, newest first, plus aggregate metrics
// @Tags cases
// @Produce json
// @Success 200 {object} models.QueueResponse
// @Failure 500 {object} models.ActionResponse
// @Router /api/cases [get]
func QueueHandler(store queueStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		pending, err := store.PendingReview(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		metrics, err := store.Metrics(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.QueueResponse{
			Cases:   pending,
			Metrics: metrics,
		})
	}
}
