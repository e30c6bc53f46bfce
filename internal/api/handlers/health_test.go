package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func healthCheck(t *testing.T, handler *HealthHandler) (string, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.Check(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	components := data["components"].(map[string]interface{})
	status := data["status"].(string)

	result := make(map[string]interface{}, len(components))
	for k, v := range components {
		result[k] = v
	}
	return status, result
}

func TestHealthHandler_Check(t *testing.T) {
	t.Run("healthy when everything is configured and reachable", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		handler := NewHealthHandler(db, true, true)

		status, components := healthCheck(t, handler)

		assert.Equal(t, "healthy", status)
		assert.Equal(t, "ok", components["database"])
		assert.Equal(t, "ok", components["embedding"])
		assert.Equal(t, "ok", components["generation"])
	})

	t.Run("degraded when database is unreachable", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(assert.AnError)
		handler := NewHealthHandler(db, true, true)

		status, components := healthCheck(t, handler)

		assert.Equal(t, "degraded", status)
		assert.Equal(t, "unavailable", components["database"])
	})

	t.Run("degraded when backends are not configured", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		handler := NewHealthHandler(db, false, false)

		status, components := healthCheck(t, handler)

		assert.Equal(t, "degraded", status)
		assert.Equal(t, "ok", components["database"])
		assert.Equal(t, "not_configured", components["embedding"])
		assert.Equal(t, "not_configured", components["generation"])
	})
}
