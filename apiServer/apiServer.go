package apiServer

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/i5heu/prolix"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const defaultFormExpiration = 60

// Service is the operation surface the server exposes. *prolix.Prolix
// implements it.
type Service interface {
	Obscure(ctx context.Context, text string, expirationSecs int) (prolix.ObscureResult, error)
	Clarify(ctx context.Context, key, obscuredText string) (prolix.ClarifyResult, error)
	Forget(ctx context.Context, key string) error
}

type HealthFunc func(ctx context.Context) error

type Option func(*Server)

type Server struct {
	mux            *http.ServeMux
	svc            Service
	log            *logrus.Logger
	auth           AuthFunc
	health         HealthFunc
	form           *template.Template
	formExpiration int
}

type ctxKey int

const requestIDKey ctxKey = iota

func New(svc Service, opts ...Option) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		svc:            svc,
		log:            logrus.StandardLogger(),
		auth:           defaultAuth,
		health:         func(context.Context) error { return nil },
		form:           formTemplate,
		formExpiration: defaultFormExpiration,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleForm)
	s.mux.HandleFunc("POST /obscure", s.handleFormObscure)
	s.mux.HandleFunc("POST /clarify", s.handleFormClarify)

	s.mux.HandleFunc("POST /api/obscure", s.handleObscure)
	s.mux.HandleFunc("POST /api/clarify", s.handleClarify)
	s.mux.HandleFunc("DELETE /api/descriptors/{key}", s.handleForget)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// unauthenticated paths
func isOpenPath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	} else {
		w.Header().Set("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)

	allowedHeaders := r.Header.Get("Access-Control-Request-Headers")
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Accept, X-Auth-Token"
	}
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Content-Length, X-Request-ID")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !isOpenPath(r.URL.Path) {
		if err := s.auth(r); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": id,
				"path":       r.URL.Path,
			}).WithError(err).Warn("authentication failed")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
	}

	metricRequestsInflight.Inc()
	defer metricRequestsInflight.Dec()

	started := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.WithFields(logrus.Fields{
		"request_id": id,
		"method":     r.Method,
		"path":       r.URL.Path,
		"duration":   time.Since(started),
	}).Debug("request served")
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
