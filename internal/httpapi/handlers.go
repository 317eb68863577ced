package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bankfsm.org/api/openapi"
	"bankfsm.org/internal/auth"
	"bankfsm.org/internal/obs"
	"bankfsm.org/internal/stream"
	"bankfsm.org/internal/teller"
)

const serviceName = "bankfsm-api"

// ReadyProbe: простая проверка готовности (ping БД, если он задан).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// API is the HTTP layer over a single teller.
type API struct {
	readyProbe readinessChecker
	version    string
	teller     *teller.Teller
	stream     *stream.Stream
	tokens     *auth.Tokens
	creds      *auth.Credentials

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// New builds the API. A nil tokens disables authentication entirely; a nil
// stream disables /v1/account/stream.
func New(rp readinessChecker, version string, t *teller.Teller, st *stream.Stream, tokens *auth.Tokens) *API {
	return &API{
		readyProbe:   rp,
		version:      version,
		teller:       t,
		stream:       st,
		tokens:       tokens,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
}

// SetRateLimit overrides the per-client token bucket.
func (a *API) SetRateLimit(burst, perSecond int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSecond > 0 {
		a.ratePerSec = perSecond
	}
}

// SetCredentials sets the bootstrap login accepted by POST /v1/auth/token.
func (a *API) SetCredentials(c *auth.Credentials) { a.creds = c }

// Handler returns the routed, instrumented handler.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID,
		LoggingJSON,
		SecurityHeaders,
		CORS,
		func(next http.Handler) http.Handler { return MaxBodyBytes(next, a.maxBodyBytes) },
		func(next http.Handler) http.Handler { return RateLimit(next, a.rateBurst, a.ratePerSec) },
		a.withAuth,
	)

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Get("/openapi.yaml", a.OpenAPISpec)
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	r.Post("/v1/auth/token", a.handleAuthToken)

	r.Route("/v1/account", func(r chi.Router) {
		r.Get("/", a.getAccount)
		r.Get("/stream", a.Stream)
		r.With(a.requireRole(auth.RoleTeller, auth.RoleAdmin)).Post("/actions", a.dispatch)
		r.With(a.requireRole(auth.RoleAuditor, auth.RoleTeller, auth.RoleAdmin)).Get("/journal", a.listJournal)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return obs.Instrument(r)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.readyProbe != nil {
		if err := a.readyProbe.Check(r.Context()); err != nil {
			obs.SetReady(false)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":         serviceName,
		"time":         time.Now().UTC().Format(time.RFC3339),
		"version":      a.version,
		"auth_enabled": a.tokens != nil,
	}
	if a.teller != nil {
		if l, ok := a.teller.Limits(); ok {
			info["limits"] = l
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(openapi.Spec)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := map[string]any{"error": msg}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, code, body)
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
