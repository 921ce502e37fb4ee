package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imspharma/pharma-backend/internal/metrics"
	"github.com/imspharma/pharma-backend/internal/query"
	"github.com/imspharma/pharma-backend/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubConnector struct {
	connectErr error
	closeCalls int
}

func (c *stubConnector) Connect(ctx context.Context) (query.Session, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	return &stubSession{connector: c}, nil
}

type stubSession struct {
	connector *stubConnector
}

func (s *stubSession) Collection(database, name string) query.Collection { return nil }

func (s *stubSession) Close(ctx context.Context) error {
	s.connector.closeCalls++
	return nil
}

func TestHealthz(t *testing.T) {
	handler, _ := createTestHandler()

	w := httptest.NewRecorder()
	handler.Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var dto HealthDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, "ok", dto.Status)
	assert.Equal(t, Version, dto.Version)
}

func TestReadyz_ProbesAndReleasesConnection(t *testing.T) {
	handler, _ := createTestHandler()
	connector := &stubConnector{}
	handler.connector = connector

	w := httptest.NewRecorder()
	handler.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, connector.closeCalls, "probe connection must be released")
}

func TestReadyz_Unavailable(t *testing.T) {
	handler, _ := createTestHandler()
	handler.connector = &stubConnector{connectErr: errors.New("server selection timeout")}

	w := httptest.NewRecorder()
	handler.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MONGO_UNAVAILABLE", resp.Code)
}

func TestGetSchema(t *testing.T) {
	handler, _ := createTestHandler()

	w := httptest.NewRecorder()
	handler.GetSchema(w, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var fields map[string]schema.FieldDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Len(t, fields, len(schema.Fields()))
}

func TestRoutes_MCPEndpointWired(t *testing.T) {
	handler, _ := createTestHandler()
	handler.connector = &stubConnector{}

	logger, _ := zap.NewDevelopment()
	metricsObj, _, err := metrics.Setup("pharma-api-test")
	require.NoError(t, err)

	router := handler.Routes(NewMiddleware(logger.Sugar(), metricsObj), "/mcp", []string{"http://localhost:3000"}, 600)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Empty body fails JSON-RPC parsing but proves the route dispatches
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Parse error")
}
