// Package server exposes the services over HTTP on the goa muxer.
package server

import (
	"context"
	"net/http"

	"adspace/internal/config"
	"adspace/internal/domain"
	"adspace/internal/messaging"
	"adspace/internal/metrics"
	"adspace/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
	"goa.design/goa/v3/security"
)

// Security scopes.
const (
	ScopeAdmin      = "admin"
	ScopeSuperAdmin = "superAdmin"
)

// Services are the endpoints' dependencies.
type Services struct {
	Auth      *services.AuthService
	Contact   *services.ContactService
	Blogs     *services.ContentService[domain.Blog, *domain.Blog]
	Jobs      *services.ContentService[domain.Job, *domain.Job]
	Reels     *services.ContentService[domain.Reel, *domain.Reel]
	Media     *services.MediaService
	Health    *services.HealthService
	Messaging messaging.Sender
}

// Server routes requests to the services.
type Server struct {
	mux goahttp.MiddlewareMuxer
	svc Services
	cfg *config.Config
	log *zap.Logger
}

// endpoint handles a decoded request and returns the status and body to
// encode.
type endpoint func(ctx context.Context, r *http.Request) (int, any, error)

// New mounts every route and wraps the muxer in the middleware chain:
// security headers, CORS, request logging, Prometheus, request id.
func New(cfg *config.Config, svc Services, log *zap.Logger) http.Handler {
	s := &Server{
		mux: goahttp.NewMuxer(),
		svc: svc,
		cfg: cfg,
		log: log.Named("http"),
	}
	s.mux.Use(middleware.RequestID())
	s.mux.Use(middleware.PopulateRequestContext())

	s.mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)
	s.mountSystem()
	s.mountAuth()
	s.mountContact()
	mountContent(s, "/blogs", svc.Blogs)
	mountContent(s, "/jobs", svc.Jobs)
	mountContent(s, "/reels", svc.Reels)
	s.mountMedia()

	var h http.Handler = s.mux
	h = metrics.PrometheusMiddleware(h)
	h = requestLogging(s.log, h)
	h = cors(&cfg.App, &cfg.CORS, h)
	h = securityHeaders(&cfg.App, h)
	return h
}

// handle mounts ep. With scopes set the request must carry a bearer token
// whose user holds all of them.
func (s *Server) handle(method, pattern string, ep endpoint, scopes ...string) {
	s.mux.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), goahttp.AcceptTypeKey, r.Header.Get("Accept"))
		if len(scopes) > 0 {
			var err error
			if ctx, err = s.authorize(ctx, r, scopes); err != nil {
				s.encodeError(ctx, w, r, err)
				return
			}
		}

		status, body, err := ep(ctx, r.WithContext(ctx))
		if err != nil {
			s.encodeError(ctx, w, r, err)
			return
		}
		if err := encode(ctx, w, status, body); err != nil {
			s.log.Warn("failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
		}
	})
}

func (s *Server) authorize(ctx context.Context, r *http.Request, scopes []string) (context.Context, error) {
	scheme := &security.JWTScheme{
		Name:           "jwt",
		Scopes:         []string{ScopeAdmin, ScopeSuperAdmin},
		RequiredScopes: scopes,
	}
	return s.svc.Auth.JWTAuth(ctx, bearer(r), scheme)
}

// param returns the named path parameter.
func (s *Server) param(r *http.Request, name string) string {
	return s.mux.Vars(r)[name]
}
