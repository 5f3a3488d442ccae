package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Sternrassler/query-cache/pkg/logging"
	"github.com/Sternrassler/query-cache/pkg/metrics"
	"github.com/Sternrassler/query-cache/pkg/product"
	"github.com/Sternrassler/query-cache/pkg/query"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// querier answers product queries.
type querier interface {
	Handle(ctx context.Context, payload product.QueryPayload) ([]product.Product, error)
}

// pinger reports backend reachability for /ready.
type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	service querier
	cache   pinger
	records pinger
	logger  zerolog.Logger
}

func newServer(service querier, cachePinger, recordPinger pinger) *server {
	return &server{
		service: service,
		cache:   cachePinger,
		records: recordPinger,
		logger:  logging.NewLogger("http"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())
	return s.withRequestID(mux)
}

type queryResponse struct {
	Data []product.Product `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var payload product.QueryPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		logger.Debug().Err(err).Msg("Malformed query body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	products, err := s.service.Handle(r.Context(), payload)
	if err != nil {
		status := query.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("Query failed")
		} else {
			logger.Debug().Err(err).Int("status", status).Msg("Query rejected")
		}
		writeJSON(w, status, errorResponse{Error: query.PublicMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Data: products})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]pinger{"redis": s.cache, "mongo": s.records}
	status := make(map[string]string, len(checks))
	ready := true
	for name, p := range checks {
		if err := p.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("backend", name).Msg("Readiness check failed")
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// withRequestID assigns every request an ID, echoes it in the response and
// attaches a request-scoped logger to the context.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := s.logger.With().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Debug().
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
