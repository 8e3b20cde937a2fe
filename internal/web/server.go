// Package web provides the HTTP server and handlers for the data pipeline API.
package web

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dataunify/pipeline/internal/config"
	"github.com/dataunify/pipeline/internal/core"
	pipelinemw "github.com/dataunify/pipeline/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Server is the HTTP server exposing the pipeline API of §6.
type Server struct {
	service   *core.Service
	router    *chi.Mux
	server    *http.Server
	validate  *validator.Validate
	uploadCfg config.UploadConfig
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, secCfg config.SecurityConfig, uploadCfg config.UploadConfig) *Server {
	s := &Server{
		service:   service,
		router:    chi.NewRouter(),
		validate:  validator.New(),
		uploadCfg: uploadCfg,
	}
	s.setupMiddleware(secCfg)
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(secCfg config.SecurityConfig) {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(pipelinemw.Logger)
	s.router.Use(pipelinemw.Metrics)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(60 * time.Second))

	s.router.Use(securityHeaders)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	limiter := newRateLimiter(100, time.Minute)
	s.router.Use(limiter.middleware)
	s.router.Use(pipelinemw.APIKeyAuth(&secCfg))
}

// setupRoutes configures every endpoint of §6's external interface.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Get("/{projectID}", s.handleGetProject)
			r.Delete("/{projectID}", s.handleDeleteProject)
			r.Get("/{projectID}/columns", s.handleProjectColumns)
			r.Post("/{projectID}/clean", s.handleStartProjectCleaning)
			r.Post("/{projectID}/detect-relationships", s.handleDetectRelationships)
			r.Post("/{projectID}/create-unified-view", s.handleCreateUnifiedView)
			r.Post("/{projectID}/auto-complete", s.handleAutoComplete)
		})

		r.Route("/v1/clean", func(r chi.Router) {
			r.Post("/auto-config", s.handleAutoConfig)
			r.Post("/", s.handleStartCleaning)
			r.Get("/{jobID}/status", s.handleCleaningStatus)
			r.Get("/{jobID}/report", s.handleCleaningReport)
			r.Get("/{jobID}/data", s.handleCleanedData)
			r.Get("/{jobID}/download", s.handleCleanedDownload)
		})

		r.Route("/v1/domain", func(r chi.Router) {
			r.Post("/detect", s.handleDetectDomain)
			r.Post("/detect-project", s.handleDetectDomainProject)
			r.Post("/confirm", s.handleConfirmDomain)
			r.Get("/{jobID}/status", s.handleDomainStatus)
			r.Get("/list", s.handleListDomainJobs)
		})

		r.Route("/v1/kpi", func(r chi.Router) {
			r.Post("/extract", s.handleExtractKPIs)
			r.Get("/library", s.handleKpiLibrary)
			r.Post("/select", s.handleSelectKPIs)
			r.Get("/{jobID}/status", s.handleKpiStatus)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Post("/generate", s.handleGenerateDashboard)
			r.Get("/{projectID}", s.handleGetDashboard)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"success":false,"error":{"message":"rate limit exceeded","code":"RATE001"}}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
