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

type fakeQueueStore struct {
	pending    []models.Case
	metrics    models.QueueMetrics
	pendingErr error
	metricsErr error
}

func (f *fakeQueueStore) PendingReview(context.Context) ([]models.Case, error) {
	return f.pending, f.pendingErr
}

func (f *fakeQueueStore) Metrics(context.Context) (models.QueueMetrics, error) {
	return f.metrics, f.metricsErr
}

func TestQueueHandler_ReturnsPendingCasesAndMetrics(t *testing.T) {
	store := &fakeQueueStore{
		pending: []models.Case{
			{ID: 3, Subject: "Refund", State: models.StateNeedsReview, DraftConfidence: 30},
		},
		metrics: models.QueueMetrics{Total: 10, Queue: 1, Answered: 8, AvgConfidence: 64.2},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, QueueHandler(store)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Cases, 1)
	assert.Equal(t, 3, response.Cases[0].ID)
	assert.Equal(t, 1, response.Metrics.Queue)
	assert.InDelta(t, 64.2, response.Metrics.AvgConfidence, 0.001)
}

func TestQueueHandler_StoreFailure(t *testing.T) {
	store := &fakeQueueStore{pendingErr: assert.AnError}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, QueueHandler(store)(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
