// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/insights/internal/adapters/session"
	"github.com/okian/insights/internal/domain/account"
	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/pkg/logger"
)

// Default server limits.
const (
	defaultMaxUploadBytes = 32 << 20
	defaultUploadRate     = 5
	defaultUploadBurst    = 10
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Signup(ctx context.Context, username, password, businessName string) (account.Account, error)
	Login(ctx context.Context, username, password string) (account.Account, error)

	OpenSession(ctx context.Context, a account.Account) (session.Session, string, error)
	ResolveSession(ctx context.Context, token string) (session.Session, error)
	CloseSession(ctx context.Context, id uuid.UUID) bool

	// Process runs the sales pipeline over one upload.
	Process(ctx context.Context, in pipeline.Loader) (*pipeline.Result, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of an upload request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithUploadRate limits uploads per user to perSecond with the given burst.
func WithUploadRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.uploadRate = rate.Limit(perSecond)
			s.uploadBurst = burst
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	logger         logger.Logger
	maxUploadBytes int64
	uploadRate     rate.Limit
	uploadBurst    int

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	accountHandler *AccountHandler
	uploadHandler  *UploadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		logger:         logger.Nop(),
		maxUploadBytes: defaultMaxUploadBytes,
		uploadRate:     defaultUploadRate,
		uploadBurst:    defaultUploadBurst,
	}
	for _, opt := range opts {
		opt(s)
	}
	v := newValidator()
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.accountHandler = NewAccountHandler(deps, v, s.logger)
	s.uploadHandler = NewUploadHandler(deps, s.maxUploadBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	auth := AuthMiddleware(s.deps)
	limit := newUserLimiter(s.uploadRate, s.uploadBurst)

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/signup", MetricsMiddleware(s.accountHandler.HandleSignup, "signup"))
	mux.HandleFunc("/login", MetricsMiddleware(s.accountHandler.HandleLogin, "login"))
	mux.HandleFunc("/logout", MetricsMiddleware(auth(s.accountHandler.HandleLogout), "logout"))
	mux.HandleFunc("/uploads", MetricsMiddleware(auth(limit.middleware(s.uploadHandler.HandleUpload)), "uploads"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
