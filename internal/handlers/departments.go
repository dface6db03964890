package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"maildesk/internal/models"

	"github.com/labstack/echo/v4"
)

// directory is the department surface the HTTP layer uses
type directory interface {
	All(ctx context.Context) ([]models.Department, error)
	UpdateHead(ctx context.Context, id int, headName, headEmail string) error
}

// DepartmentsHandler lists all routing departments
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {array} models.Department
// @Failure 500 {object} models.ActionResponse
// @Router /api/departments [get]
func DepartmentsHandler(dir directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		departments, err := dir.All(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		return c.JSON(http.StatusOK, departments)
	}
}

// UpdateDepartmentHandler sets the accountable contact of a department
// @Summary Update a department head
// @Tags departments
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param request body models.DepartmentUpdateRequest true "Head contact"
// @Success 200 {object} models.ActionResponse
// @Failure 400 {object} models.ActionResponse
// @Failure 500 {object} models.ActionResponse
// @Router /api/departments/{id} [put]
func UpdateDepartmentHandler(dir directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ActionResponse{
				Success: false,
				Error:   "invalid department id",
			})
		}

		var req models.DepartmentUpdateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ActionResponse{
				Success: false,
				Error:   "invalid request body",
			})
		}
		if strings.TrimSpace(req.HeadEmail) == "" {
			return c.JSON(http.StatusBadRequest, models.ActionResponse{
				Success: false,
				Error:   "head_email is required",
			})
		}

		if err := dir.UpdateHead(c.Request().Context(), id, req.HeadName, req.HeadEmail); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.ActionResponse{
			Success: true,
			Message: "department updated",
		})
	}
}
