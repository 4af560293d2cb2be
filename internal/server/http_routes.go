package server

import (
	"net/http"

	"resumegrade/internal/observability"
	"resumegrade/internal/presentation"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	traced := observability.ObservabilityMiddleware(s.Observability)
	rateLimitHandler := s.rateLimitMiddleware()
	requestLimitHandler := s.requestSizeLimitMiddleware()

	mux.HandleFunc("GET /{$}", s.pageHandler)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(presentation.StaticFiles())))

	mux.HandleFunc("GET /api/view", traced(s.viewHandler))
	mux.HandleFunc("POST /api/resume",
		rateLimitHandler(
			traced(requestLimitHandler(s.resumeHandler)),
		),
	)
	mux.HandleFunc("POST /api/reset", traced(s.resetHandler))
	mux.HandleFunc("POST /api/modal/open", traced(s.modalOpenHandler))
	mux.HandleFunc("POST /api/modal/close", traced(s.modalCloseHandler))
	mux.HandleFunc("POST /api/credential", traced(requestLimitHandler(s.saveCredentialHandler)))
	mux.HandleFunc("DELETE /api/credential", traced(s.clearCredentialHandler))

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	return mux
}

// Handler returns the routes wrapped in the OpenTelemetry HTTP middleware
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}
