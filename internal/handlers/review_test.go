package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"maildesk/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewer struct {
	kase       *models.Case
	err        error
	approved   []int
	dismissed  []int
}

func (f *fakeReviewer) Approve(_ context.Context, id int) (*models.Case, error) {
	f.approved = append(f.approved, id)
	return f.kase, f.err
}

func (f *fakeReviewer) Dismiss(_ context.Context, id int) (*models.Case, error) {
	f.dismissed = append(f.dismissed, id)
	return f.kase, f.err
}

func reviewContext(t *testing.T, method, target, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestApproveHandler_Success(t *testing.T) {
	r := &fakeReviewer{kase: &models.Case{ID: 5, State: models.StateHumanAnswered}}
	c, rec := reviewContext(t, http.MethodPost, "/api/cases/5/approve", "5")

	require.NoError(t, ApproveHandler(r)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{5}, r.approved)

	var response models.ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Contains(t, response.Message, models.StateHumanAnswered)
}

func TestApproveHandler_InvalidID(t *testing.T) {
	r := &fakeReviewer{}
	c, rec := reviewContext(t, http.MethodPost, "/api/cases/x/approve", "x")

	require.NoError(t, ApproveHandler(r)(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, r.approved)
}

func TestApproveHandler_Failure(t *testing.T) {
	r := &fakeReviewer{err: assert.AnError}
	c, rec := reviewContext(t, http.MethodPost, "/api/cases/5/approve", "5")

	require.NoError(t, ApproveHandler(r)(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDismissHandler_Success(t *testing.T) {
	r := &fakeReviewer{kase: &models.Case{ID: 9, State: models.StateArchived}}
	c, rec := reviewContext(t, http.MethodPost, "/api/cases/9/dismiss", "9")

	require.NoError(t, DismissHandler(r)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{9}, r.dismissed)
}
