package handlers

import (
	"context"
	"net/http"
	"strconv"

	"maildesk/internal/models"

	"github.com/labstack/echo/v4"
)

// reviewer covers the human-review actions on pending cases
type reviewer interface {
	Approve(ctx context.Context, id int) (*models.Case, error)
	Dismiss(ctx context.Context, id int) (*models.Case, error)
}

// ApproveHandler sends the stored draft of a pending case and closes it
// @Summary Approve a pending draft
// @Description Sends the stored draft verbatim to the original sender
// @Tags cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} models.ActionResponse
// @Failure 400 {object} models.ActionResponse
// @Failure 500 {object} models.ActionResponse
// @Router /api/cases/{id}/approve [post]
func ApproveHandler(r reviewer) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ActionResponse{
				Success: false,
				Error:   "invalid case id",
			})
		}

		kase, err := r.Approve(c.Request().Context(), id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.ActionResponse{
			Success: true,
			Message: "draft sent, case " + kase.State,
		})
	}
}

// DismissHandler archives a pending case without sending anything
// @Summary Dismiss a pending draft
// @Tags cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} models.ActionResponse
// @Failure 400 {object} models.ActionResponse
// @Failure 500 {object} models.ActionResponse
// @Router /api/cases/{id}/dismiss [post]
func DismissHandler(r reviewer) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ActionResponse{
				Success: false,
				Error:   "invalid case id",
			})
		}

		kase, err := r.Dismiss(c.Request().Context(), id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.ActionResponse{
			Success: true,
			Message: "case " + kase.State,
		})
	}
}
