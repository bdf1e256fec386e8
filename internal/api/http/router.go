package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Metrics   *handlers.MetricsHandler
	Employees *handlers.EmployeeHandler
	Session   *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Snapshot)
	}

	var employee fiber.Router = app.Group("/employee")
	if cfg.Session != nil {
		employee = app.Group("/employee", cfg.Session.Handle)
	}
	employee.Get("/showList", cfg.Employees.ShowList)
	employee.Get("/search", cfg.Employees.Search)
	employee.Get("/autocomplete", cfg.Employees.Autocomplete)
	employee.Get("/showDetail", cfg.Employees.ShowDetail)
	employee.Post("/update", cfg.Employees.Update)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/employee/showList", fiber.StatusFound)
	})
}
