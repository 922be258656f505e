package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aiquery/relay-service/internal/handlers"
	"github.com/aiquery/relay-service/internal/services"
)

type Server struct {
	httpAddr     string
	queryService *services.QueryService
}

func NewServer(httpAddr string, queryService *services.QueryService) *Server {
	return &Server{
		httpAddr:     httpAddr,
		queryService: queryService,
	}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	queryHandler := handlers.NewQueryHandler(s.queryService)
	queryHandler.RegisterRoutes(mux)

	slog.Info("HTTP server starting",
		"addr", s.httpAddr,
		"model", s.queryService.ModelName(),
		"endpoints", []string{"/", "/query", "/health", "/healthz", "/logs"})

	srv := &http.Server{Addr: s.httpAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
