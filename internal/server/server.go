package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/nyxguard/docs/swagger" // registers the API docs

	"github.com/raysh454/nyxguard/internal/engine"
	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/scanner"
	"github.com/raysh454/nyxguard/internal/settings"
	"github.com/raysh454/nyxguard/internal/trackers"
)

// Monitor is the session pipeline the API drives.
type Monitor interface {
	SubmitFeatures(ctx context.Context, id string, cf model.ContentFeatures) (model.DetectionResult, error)
	RecordTrackerHits(id string, n int) error
	Navigate(ctx context.Context, id, rawURL string) error
	CloseSession(ctx context.Context, id string) error
	Result(ctx context.Context, id string) (model.DetectionResult, error)
	Subscribe(sessionID string, buffer int) (<-chan monitor.Event, func())
}

// Scanner fetches and evaluates a page for a session.
type Scanner interface {
	Scan(ctx context.Context, session, pageURL string) (model.DetectionResult, error)
}

// SettingsService owns the persisted settings.
type SettingsService interface {
	Load(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) (settings.Settings, error)
	Reset(ctx context.Context) (settings.Settings, error)
	UpdateDomainLists(ctx context.Context, upd settings.DomainListsUpdate) (settings.Settings, error)
	AddDomain(ctx context.Context, list settings.List, domain string) (settings.Settings, error)
	ImportDomainLines(ctx context.Context, list settings.List, text string) (settings.ImportSummary, error)
}

// Services are the components behind the API. Scanner and Reputation may be
// nil; their routes then answer 503.
type Services struct {
	Monitor    Monitor
	Scanner    Scanner
	Settings   SettingsService
	Reputation monitor.ReputationLookup
	Trackers   *trackers.Matcher
}

// Server is the HTTP + WebSocket API surface for NyxGuard.
type Server struct {
	cfg      Config
	svc      Services
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a Server over the given services.
func NewServer(cfg Config, svc Services, logger logging.Logger) *Server {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = def.AllowedOrigin
	}
	if svc.Trackers == nil {
		svc.Trackers = trackers.NewDefaultMatcher()
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		router: chi.NewRouter(),
		logger: logger.With(logging.Component("server")),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if s.cfg.AllowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.cfg.AllowedOrigin
		},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/sessions/{id}/*", s.optionsHandler("GET, POST"))
	r.Options("/sessions/{id}", s.optionsHandler("DELETE"))
	r.Options("/settings", s.optionsHandler("GET, PUT"))
	r.Options("/settings/reset", s.optionsHandler("POST"))
	r.Options("/lists", s.optionsHandler("PUT"))
	r.Options("/lists/{list}", s.optionsHandler("POST"))
	r.Options("/lists/{list}/import", s.optionsHandler("POST"))
	r.Options("/reputation/{domain}", s.optionsHandler("GET"))

	r.Get("/healthz", s.handleHealth)

	// Sessions
	r.Post("/sessions/{id}/features", s.handleSubmitFeatures)
	r.Post("/sessions/{id}/trackers", s.handleTrackerHits)
	r.Post("/sessions/{id}/navigate", s.handleNavigate)
	r.Post("/sessions/{id}/scan", s.handleScan)
	r.Get("/sessions/{id}/result", s.handleGetResult)
	r.Delete("/sessions/{id}", s.handleCloseSession)

	// Settings and lists
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)
	r.Post("/settings/reset", s.handleResetSettings)
	r.Put("/lists", s.handlePutLists)
	r.Post("/lists/{list}", s.handleAddDomain)
	r.Post("/lists/{list}/import", s.handleImportDomains)

	r.Get("/reputation/{domain}", s.handleReputation)

	// WebSocket result stream
	r.Get("/ws/sessions/{id}", s.handleSessionWS)

	if s.cfg.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Request bodies are not logged: they
// carry page content.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

const maxBodyBytes = 1 << 20

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, monitor.ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, monitor.ErrNotHTTP),
		errors.Is(err, monitor.ErrInvalidSession),
		errors.Is(err, settings.ErrInvalidDomain),
		errors.Is(err, settings.ErrInvalidList):
		return http.StatusBadRequest
	case errors.Is(err, monitor.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, scanner.ErrBadStatus):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// --- Health ---

// handleHealth godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", EngineVersion: engine.Version})
}

// --- Reputation ---

// handleReputation godoc
// @Summary Look up a domain's reputation
// @Tags reputation
// @Produce json
// @Param domain path string true "Domain"
// @Success 200 {object} reputation.Result
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /reputation/{domain} [get]
func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	if s.svc.Reputation == nil {
		writeError(w, http.StatusServiceUnavailable, "reputation lookups are not configured")
		return
	}
	st, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		s.logger.Warn("loading settings", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !st.ReputationEnabled() {
		writeError(w, http.StatusBadRequest, "reputation checks are disabled or no API key is set")
		return
	}

	domain := chi.URLParam(r, "domain")
	res := s.svc.Reputation.Lookup(r.Context(), domain, st.ReputationAPIKey)
	s.logger.Info("reputation lookup",
		logging.Field{Key: "domain", Value: domain},
		logging.Field{Key: "status", Value: string(res.Status)})
	writeJSON(w, http.StatusOK, res)
}
