package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/doc-redactor/internal/audit"
	"github.com/raaihank/doc-redactor/internal/config"
	"github.com/raaihank/doc-redactor/internal/document"
	"github.com/raaihank/doc-redactor/internal/events"
	"github.com/raaihank/doc-redactor/internal/extract"
	"github.com/raaihank/doc-redactor/internal/logger"
	"github.com/raaihank/doc-redactor/internal/ratelimit"
	"github.com/raaihank/doc-redactor/internal/redaction"
	"github.com/raaihank/doc-redactor/internal/web"
	"go.uber.org/zap"
)

// Version is reported by /info
const Version = "0.1.0"

const statusInterval = 30 * time.Second

// ResultCache stores processed documents keyed by content hash
type ResultCache interface {
	Get(ctx context.Context, documentHash string) (*document.Result, bool)
	Set(ctx context.Context, documentHash string, result *document.Result) error
}

// AuditStore persists per-document redaction summaries
type AuditStore interface {
	Record(ctx context.Context, record *audit.Record) error
	Recent(ctx context.Context, limit int) ([]audit.Record, error)
}

// Option configures optional server dependencies
type Option func(*Server)

// WithCache enables result caching
func WithCache(c ResultCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithAudit enables the audit log
func WithAudit(a AuditStore) Option {
	return func(s *Server) { s.audit = a }
}

// Server is the document redaction HTTP service
type Server struct {
	config    *config.Config
	logger    *logger.Logger
	catalog   *redaction.Catalog
	redactor  *redaction.Redactor
	processor *document.Processor
	extractor *extract.PDFExtractor
	router    *mux.Router
	server    *http.Server
	hub       *events.Hub
	limiter   *ratelimit.Limiter
	cache     ResultCache
	audit     AuditStore

	startedAt  time.Time
	documents  atomic.Int64
	redactions atomic.Int64
	cancel     context.CancelFunc
}

// New creates a server over the given category catalog
func New(cfg *config.Config, log *logger.Logger, catalog *redaction.Catalog, opts ...Option) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	redactor := redaction.New(catalog, log.WithComponent("redaction"))

	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		catalog:   catalog,
		redactor:  redactor,
		processor: document.NewProcessor(redactor, log.WithComponent("document")),
		extractor: extract.NewPDFExtractor(log.WithComponent("extract")),
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.Events.Enabled {
		s.hub = events.NewHub(&events.HubConfig{
			BroadcastDocuments:   cfg.Events.Events.BroadcastDocuments,
			BroadcastRequests:    cfg.Events.Events.BroadcastRequests,
			BroadcastSystem:      cfg.Events.Events.BroadcastSystem,
			BroadcastConnections: cfg.Events.Events.BroadcastConnections,
			Username:             cfg.Events.Username,
			Password:             cfg.Events.Password,
		}, log.Logger)
	}

	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.New(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/", web.ServeUpload).Methods(http.MethodGet)

	if s.hub != nil {
		s.router.HandleFunc(s.config.Events.Path, s.hub.HandleWebSocket).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.requestMiddleware)
	api.Use(s.corsMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/redact-pdf", s.handleRedactPDF).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/redact-text", s.handleRedactText).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/audit", s.handleAudit).Methods(http.MethodGet, http.MethodOptions)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts background workers and serves HTTP until Stop is called
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.hub != nil {
		go s.hub.Run(ctx)
		go s.statusLoop(ctx)
	}
	if s.limiter != nil {
		s.limiter.StartCleanupRoutine(10*time.Minute, ctx.Done())
	}

	s.logger.Info("Starting redaction server",
		zap.Int("port", s.config.Server.Port),
		zap.Int("categories", s.catalog.Len()),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("audit_enabled", s.audit != nil),
		zap.Bool("events_enabled", s.hub != nil))

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and background workers
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping redaction server")
	if s.cancel != nil {
		s.cancel()
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.hub.BroadcastStatus(events.SystemStatusEvent{
				Status:             "healthy",
				Uptime:             time.Since(s.startedAt).Round(time.Second).String(),
				DocumentsProcessed: s.documents.Load(),
				TotalRedactions:    s.redactions.Load(),
				Categories:         s.catalog.Len(),
				ConnectedClients:   s.hub.ClientCount(),
			})
		case <-ctx.Done():
			return
		}
	}
}
