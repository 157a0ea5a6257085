package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/api/handler"
	"github.com/holycode/contracts-api/internal/api/middleware"
	"github.com/holycode/contracts-api/internal/core/domain"
	"github.com/holycode/contracts-api/internal/core/ports"
	"github.com/holycode/contracts-api/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the router wires into handlers and middleware.
type Dependencies struct {
	Logger    zerolog.Logger
	Auth      ports.AuthService
	Contracts ports.ContractService
	Users     middleware.UserFinder
	Tokens    middleware.TokenVerifier

	// Readiness lists the dependencies checked by GET /health/ready.
	Readiness []handlers.Dependency

	// MetricsRegisterer and MetricsGatherer default to the global Prometheus registry.
	MetricsRegisterer prometheus.Registerer
	MetricsGatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	registerer := deps.MetricsRegisterer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "contracts_http",
		Registerer: registerer,
	}))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	authenticate := middleware.Authenticate(deps.Tokens)
	asUser := middleware.RequirePermission(deps.Users, domain.RoleUser)

	authHandler := handler.NewAuthHandler(deps.Auth)
	contractHandler := handler.NewContractHandler(deps.Contracts)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	v1.POST("/signup", authHandler.Signup)
	v1.POST("/signin", authHandler.Signin)
	v1.POST("/change-password", authHandler.ChangePassword, authenticate)

	// --- Contract routes ---
	contracts := v1.Group("/contracts", authenticate, asUser)
	contracts.POST("", contractHandler.Create)
	contracts.GET("", contractHandler.List)
	contracts.GET("/:id", contractHandler.Get)
	contracts.PUT("/:id", contractHandler.Update)
	contracts.PATCH("/:id", contractHandler.Cancel)

	return e
}
