// Package httpserver exposes the typing API over HTTP.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verte-zerg/typetrack/internal/auth"
	"github.com/verte-zerg/typetrack/internal/config"
	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/observability"
)

type AuthService interface {
	Register(ctx context.Context, r auth.Registration) (model.User, string, error)
	Login(ctx context.Context, email, password string) (model.User, string, error)
	Authenticate(ctx context.Context, token string) (model.User, error)
}

type SessionService interface {
	Create(ctx context.Context, ownerID string, c model.Candidate) (model.Session, error)
	List(ctx context.Context, requesterID, ownerID string, limit int) ([]model.Session, error)
	Summary(ctx context.Context, requesterID, ownerID string, limit int) (model.Summary, error)
	Analysis(ctx context.Context, ownerID, sessionID string) (model.Analysis, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Auth     AuthService
	Sessions SessionService
	Health   Pinger
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	// Passage returns a reference text for a new test.
	Passage func() string
}

type Server struct {
	echo *echo.Echo
	addr string
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	e := NewHandler(cfg, deps)
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Server.IdleTimeout = 60 * time.Second
	return &Server{echo: e, addr: cfg.Addr}
}

// NewHandler builds the routed echo instance without binding a listener.
func NewHandler(cfg config.ServerConfig, deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(deps.Logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if deps.Metrics != nil {
		e.Use(metricsMiddleware(deps.Metrics))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	h := &handler{deps: deps}
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Typing Speed Test API is running")
	})
	e.GET("/healthz", h.health)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	api.GET("/passages/random", h.randomPassage)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.GET("/user", h.currentUser, h.requireUser)

	sessions := api.Group("/sessions", h.requireUser)
	sessions.POST("", h.createSession)
	sessions.GET("/analysis/:sessionId", h.analysis)
	sessions.GET("/:userId", h.listSessions)
	sessions.GET("/:userId/summary", h.summary)

	return e
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

func metricsMiddleware(m *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.ActiveRequests.Inc()
			defer m.ActiveRequests.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.RequestDurationSeconds.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "Server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		} else {
			logger.Error("unhandled error", "err", err, "path", c.Path())
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorBody(message))
	}
}
