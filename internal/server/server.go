package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal/database"
	"github.com/scythe504/gyeongdo-backend/internal/game"
)

// OnlineLister reports which sessions of a room currently hold a connection.
type OnlineLister interface {
	Online(ctx context.Context, roomID string) ([]string, error)
}

type Server struct {
	port int

	rooms    *game.Registry
	ws       http.Handler
	metrics  http.Handler
	db       database.Service
	presence OnlineLister
	log      *zap.Logger
}

// Options carries the optional backends. Nil fields disable the routes or
// fields that depend on them.
type Options struct {
	Port     int
	Rooms    *game.Registry
	WS       http.Handler
	Metrics  http.Handler
	DB       database.Service
	Presence OnlineLister
	Logger   *zap.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		port:     opts.Port,
		rooms:    opts.Rooms,
		ws:       opts.WS,
		metrics:  opts.Metrics,
		db:       opts.DB,
		presence: opts.Presence,
		log:      opts.Logger,
	}
}

// HTTPServer wraps the routes in an http.Server with the usual timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
