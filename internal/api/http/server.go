package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/api/http/views"
	"github.com/spec-kit/employee-directory/internal/observability"
)

// ServerConfig holds the pieces needed to build the fiber application.
type ServerConfig struct {
	AppName        string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Routes         RouteConfig
}

// NewServer builds the fiber app with views, middlewares and routes registered.
func NewServer(cfg ServerConfig) (*fiber.App, error) {
	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		Views:                 engine,
		ViewsLayout:           views.Layout,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.RequestTimeout)
	RegisterRoutes(app, cfg.Routes)
	return app, nil
}
