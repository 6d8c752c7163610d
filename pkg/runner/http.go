package runner

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chainline/chainline/pkg/domain"
	"github.com/chainline/chainline/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApplyRequest is the JSON body accepted by the apply endpoint.
type ApplyRequest struct {
	Input string `json:"input"`
}

// ApplyResponse is the JSON body returned by the apply endpoint.
type ApplyResponse struct {
	Output     string   `json:"output"`
	Pipeline   string   `json:"pipeline"`
	Stages     int      `json:"stages"`
	Skipped    []string `json:"skipped,omitempty"`
	Generation int64    `json:"generation"`
	RequestID  string   `json:"request_id"`
}

// PipelineInfo describes one composed pipeline in the listing endpoint.
type PipelineInfo struct {
	Name       string   `json:"name"`
	Policy     string   `json:"policy"`
	Steps      []string `json:"steps"`
	Stages     int      `json:"stages"`
	Skipped    []string `json:"skipped,omitempty"`
	Generation int64    `json:"generation"`
}

// Handler exposes the pipeline set over HTTP:
//
//	POST /v1/pipelines/{name}/apply - apply a named pipeline to an input
//	GET  /v1/pipelines              - list composed pipelines
//	GET  /healthz                   - liveness
type Handler struct {
	set     *Set
	logger  *slog.Logger
	metrics *Metrics
	mux     *http.ServeMux
}

// HandlerConfig holds dependencies for creating a Handler.
type HandlerConfig struct {
	Set     *Set
	Logger  *slog.Logger
	Metrics *Metrics
}

// NewHandler constructs the HTTP API around a pipeline set.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Set == nil {
		panic("runner: pipeline set is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		set:     cfg.Set,
		logger:  logger,
		metrics: cfg.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/pipelines/{name}/apply", h.handleApply)
	mux.HandleFunc("GET /v1/pipelines", h.handleList)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux = mux

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	h.mux.ServeHTTP(rec, r)

	if h.metrics != nil {
		h.metrics.RecordHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
	}
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	requestID := uuid.NewString()

	tracer := otel.Tracer("chainline.runner")
	ctx, span := tracer.Start(ctx, "pipeline.apply",
		trace.WithAttributes(
			attribute.String("pipeline.name", name),
			attribute.String("request.id", requestID),
		))
	defer span.End()

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, span, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with an input field")
		if h.metrics != nil {
			h.metrics.RecordApply(name, "bad_request", 0)
		}
		return
	}

	entry, err := h.set.Select(name)
	if err != nil {
		if errors.Is(err, domain.ErrPipelineNotFound) {
			h.writeError(w, span, http.StatusNotFound, "PIPELINE_NOT_FOUND", err.Error())
		} else {
			h.writeError(w, span, http.StatusInternalServerError, "INTERNAL", err.Error())
		}
		if h.metrics != nil {
			h.metrics.RecordApply(name, "not_found", 0)
		}
		return
	}

	start := time.Now()
	output := entry.Pipeline.Apply(ctx, req.Input)
	elapsed := time.Since(start)

	telemetry.RecordApply(ctx, telemetry.ApplyMetrics{
		Pipeline: name,
		Stages:   entry.Pipeline.Len(),
		Duration: elapsed,
	})
	if h.metrics != nil {
		h.metrics.RecordApply(name, "ok", elapsed)
	}

	span.SetAttributes(attribute.Int("pipeline.stages", entry.Pipeline.Len()))

	h.logger.Debug("pipeline applied",
		"pipeline", name,
		"request_id", requestID,
		"stages", entry.Pipeline.Len(),
		"duration", elapsed)

	writeJSON(w, http.StatusOK, ApplyResponse{
		Output:     output,
		Pipeline:   entry.Name,
		Stages:     entry.Pipeline.Len(),
		Skipped:    entry.Skipped,
		Generation: entry.Generation,
		RequestID:  requestID,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	names := h.set.Names()
	infos := make([]PipelineInfo, 0, len(names))
	for _, name := range names {
		entry, err := h.set.Select(name)
		if err != nil {
			continue
		}
		infos = append(infos, PipelineInfo{
			Name:       entry.Name,
			Policy:     entry.Spec.UnresolvedPolicy().String(),
			Steps:      entry.Spec.Steps,
			Stages:     entry.Pipeline.Len(),
			Skipped:    entry.Skipped,
			Generation: entry.Generation,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pipelines":  infos,
		"generation": h.set.Generation(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, span trace.Span, status int, code, message string) {
	traceID := ""
	if span.SpanContext().HasTraceID() {
		traceID = span.SpanContext().TraceID().String()
	}
	writeJSON(w, status, domain.ErrorResponse{
		Code:    code,
		Message: message,
		TraceID: traceID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response status for metrics without disturbing
// the underlying writer.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}
