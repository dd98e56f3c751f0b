package api

import (
	"sort"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/webster-hq/webster/docs"
	"github.com/webster-hq/webster/internal/api/handler"
	"github.com/webster-hq/webster/internal/api/middleware"
	"github.com/webster-hq/webster/internal/core/ports"
	"github.com/webster-hq/webster/pkg/logger"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Log           zerolog.Logger
	Auth          ports.AuthService
	Tokens        ports.TokenVerifier
	Registrations ports.RegistrationService
	AllowList     ports.AllowList
	Content       ports.ContentService
	// Checks are the readiness probes keyed by dependency name.
	Checks    map[string]handler.Check
	StaticDir string
	// Registry receives the HTTP metrics; nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Specific routes take precedence over the static fallback.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.For(d.Log, "http"))

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(logger.For(d.Log, "access")))
	e.Use(echoprometheus.NewMiddlewareWithConfig(prometheusConfig(d.Registry)))

	authenticated := middleware.Auth(d.Tokens)
	operator := middleware.RequireOperator()

	// --- Content API ---
	contentHandler := handler.NewContentHandler(d.Content)
	content := e.Group("/api/content", authenticated, operator)
	content.GET("", contentHandler.Get)
	content.POST("", contentHandler.Upsert)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, logger.For(d.Log, "auth"))
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/verify-token", authHandler.VerifyToken, authenticated)
	e.GET("/verify", authHandler.Verify)
	e.POST("/verify", authHandler.Verify)
	e.POST("/admin/login", authHandler.AdminLogin)

	// --- Registration ---
	regHandler := handler.NewRegistrationHandler(d.Registrations, d.AllowList, logger.For(d.Log, "registration"))
	e.POST("/register", regHandler.Register)
	users := e.Group("/users", authenticated, operator)
	users.GET("", regHandler.List)
	users.POST("/accept", regHandler.Accept)
	users.POST("/deny", regHandler.Deny)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks, logger.For(d.Log, "health"))
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Static fallback ---
	// Registered last so it sees every route above. Any method reaches it;
	// known paths answer 405, everything else is a file lookup.
	staticHandler := handler.NewStaticHandler(d.StaticDir)
	e.Any("/*", staticFallback(routeMethods(e), staticHandler.Serve))

	return e
}

// routeMethods indexes the methods registered for each concrete path.
func routeMethods(e *echo.Echo) map[string][]string {
	methods := make(map[string][]string)
	for _, r := range e.Routes() {
		if r.Method == echo.RouteNotFound || strings.Contains(r.Path, "*") {
			continue
		}
		methods[r.Path] = append(methods[r.Path], r.Method)
	}
	for _, m := range methods {
		sort.Strings(m)
	}
	return methods
}

func staticFallback(known map[string][]string, serve echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if allowed, ok := known[c.Request().URL.Path]; ok {
			c.Response().Header().Set(echo.HeaderAllow, strings.Join(allowed, ", "))
			return echo.ErrMethodNotAllowed
		}
		return serve(c)
	}
}

func prometheusConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: "webster",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
