package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/imspharma/pharma-backend/internal/config"
	"github.com/imspharma/pharma-backend/internal/query"
	"github.com/imspharma/pharma-backend/internal/schema"
	"go.uber.org/zap"
)

// MetricsInterface defines the interface for metrics recording
type MetricsInterface interface {
	RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration)
}

// QueryExecutor is the query surface the handler depends on.
type QueryExecutor interface {
	Execute(ctx context.Context, req query.Request) ([]query.Document, error)
}

type Handler struct {
	executor  QueryExecutor
	connector query.Connector
	config    *config.Config
	logger    *zap.SugaredLogger
	metrics   MetricsInterface
}

func NewHandler(
	executor QueryExecutor,
	connector query.Connector,
	config *config.Config,
	logger *zap.SugaredLogger,
	metrics MetricsInterface,
) *Handler {
	return &Handler{
		executor:  executor,
		connector: connector,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Version: Version})
}

// Readyz verifies the database is reachable by opening and releasing one
// session, the same lifecycle a query uses.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	session, err := h.connector.Connect(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "MONGO_UNAVAILABLE", err.Error())
		return
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := session.Close(closeCtx); err != nil {
		h.logger.Warnw("Failed to close readiness probe connection", "error", err)
	}

	h.writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

// GetSchema returns the static field descriptor table as plain JSON, for
// callers that want the schema without speaking MCP.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, http.StatusOK, time.Since(start))
	}()

	h.writeJSON(w, http.StatusOK, schema.Fields())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.logger.Errorw("API error", "code", code, "message", message, "status", status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := ErrorResponse{
		Code:    code,
		Message: message,
	}
	json.NewEncoder(w).Encode(err)
}
