package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/routes"
)

type Server struct {
	deps.ServerDeps
	allowedOrigins []string
}

func New(d deps.ServerDeps, allowedOrigins []string) *Server {
	return &Server{ServerDeps: d, allowedOrigins: allowedOrigins}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	sd := s.ServerDeps

	// Endpoints declared here for easy scanning
	mux.HandleFunc("GET /health", routes.Health(sd))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /sessions", routes.StartSession(sd))
	mux.HandleFunc("GET /sessions/{id}", routes.GetSession(sd))
	mux.HandleFunc("POST /sessions/{id}/draw", routes.DrawPair(sd))
	mux.HandleFunc("POST /sessions/{id}/votes", routes.Vote(sd))
	mux.HandleFunc("POST /sessions/{id}/force", routes.Force(sd))

	mux.HandleFunc("PUT /locations/{location}", routes.SetLocation(sd))
	mux.HandleFunc("GET /locations/{location}/sessions/current", routes.CurrentSession(sd))

	mux.HandleFunc("GET /surveys/{location}/{participant}", routes.GetSurvey(sd))
	mux.HandleFunc("POST /surveys/{location}/{participant}/genres", routes.SurveyStep(sd, "genres"))
	mux.HandleFunc("POST /surveys/{location}/{participant}/type", routes.SurveyStep(sd, "type"))
	mux.HandleFunc("POST /surveys/{location}/{participant}/era", routes.SurveyStep(sd, "era"))
	mux.HandleFunc("POST /surveys/{location}/{participant}/complete", routes.CompleteSurvey(sd))

	mux.HandleFunc("GET /winners/{year}/{month}", routes.Winners(sd))

	return withCorrelationID(withLogging(withCORS(s.allowedOrigins)(withSecurityHeaders(mux))))
}
