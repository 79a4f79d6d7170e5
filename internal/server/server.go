package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
	"github.com/medicine-cart/medicine_cart/internal/config"
	"github.com/medicine-cart/medicine_cart/internal/routes"
)

// Server wraps the Fiber application.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(d routes.Deps) (*Server, error) {
	app := NewApp(d.Cfg, d.Logger)
	if err := routes.Setup(app, d); err != nil {
		return nil, err
	}
	return &Server{app: app, cfg: d.Cfg}, nil
}

// NewApp builds the Fiber application with the JSON error handler.
func NewApp(cfg config.Config, logger *slog.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          apperr.ErrorHandler(logger),
	})
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
