package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/salesflow/core/docs"
	httpHandlers "github.com/salesflow/core/internal/adapters/http"
	"github.com/salesflow/core/internal/adapters/repository"
	"github.com/salesflow/core/internal/application/services"
	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/config"
	"github.com/salesflow/core/internal/infrastructure/database"
	"github.com/salesflow/core/internal/infrastructure/logger"
)

// Server wires the workflow engine behind an echo HTTP surface and owns the
// overdue sweeper's lifecycle.
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	db      *database.DB
	sweeper *services.SweeperService
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Store and collaborators
	store := repository.NewStore(db.DB)
	audit := repository.NewAuditAdapter(db.DB)

	// Services
	notificationService := services.NewNotificationService(store, cfg.Stream.BufferSize, appLogger)
	taskService := services.NewTaskService(store, notificationService, audit, appLogger)
	activityService := services.NewActivityService(store, audit, appLogger)
	taskListService := services.NewTaskListService(store, appLogger)
	userService := services.NewUserService(store, appLogger)
	sweeper := services.NewSweeperService(store, notificationService,
		cfg.Sweeper.Interval, cfg.Sweeper.BatchSize, appLogger)

	// Handlers
	taskHandler := httpHandlers.NewTaskHandler(taskService, activityService, appLogger)
	taskListHandler := httpHandlers.NewTaskListHandler(taskListService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService,
		cfg.Stream.HeartbeatInterval, appLogger)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		db:      db,
		sweeper: sweeper,
	}

	server.setupMiddleware()
	server.setupRoutes(taskHandler, taskListHandler, userHandler, notificationHandler)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.RequestID())

	// The SSE stream endpoint is long-lived; the timeout middleware skips it.
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/notifications/stream")
		},
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(taskHandler *httpHandlers.TaskHandler, taskListHandler *httpHandlers.TaskListHandler, userHandler *httpHandlers.UserHandler, notificationHandler *httpHandlers.NotificationHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1", s.authMiddleware())

	// Task routes
	taskGroup := v1.Group("/tasks")
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask, s.minRole(entities.RoleTeamLeader))
	taskGroup.GET("/search", taskHandler.SearchTasks)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PATCH("/:id", taskHandler.UpdateTask, s.minRole(entities.RoleTeamLeader))
	taskGroup.POST("/:id/assign", taskHandler.AssignTask, s.minRole(entities.RoleTeamLeader))
	taskGroup.POST("/:id/status", taskHandler.SetStatus)
	taskGroup.POST("/:id/activities", taskHandler.AddActivity)
	taskGroup.DELETE("/:id/activities/:logId", taskHandler.DeleteActivity)
	taskGroup.GET("/:id/contacts", taskHandler.ListContacts)
	taskGroup.POST("/:id/contacts", taskHandler.AddContact, s.minRole(entities.RoleTeamLeader))
	taskGroup.PATCH("/:id/contacts/:contactId", taskHandler.UpdateContact, s.minRole(entities.RoleTeamLeader))
	taskGroup.DELETE("/:id/contacts/:contactId", taskHandler.RemoveContact, s.minRole(entities.RoleTeamLeader))

	// Task list routes
	listGroup := v1.Group("/task-lists")
	listGroup.GET("", taskListHandler.ListLists)
	listGroup.POST("", taskListHandler.CreateList, s.minRole(entities.RoleTeamLeader))
	listGroup.GET("/:id", taskListHandler.GetList)
	listGroup.PATCH("/:id", taskListHandler.UpdateList, s.minRole(entities.RoleTeamLeader))

	// User routes
	userGroup := v1.Group("/users")
	userGroup.GET("/me", userHandler.GetCurrentUser)
	userGroup.GET("", userHandler.ListUsers, s.minRole(entities.RoleTeamLeader))
	userGroup.POST("", userHandler.CreateUser, s.minRole(entities.RoleAdmin))
	userGroup.GET("/:id", userHandler.GetUser)
	userGroup.POST("/:id/role", userHandler.ChangeRole, s.minRole(entities.RoleAdmin))
	userGroup.DELETE("/:id", userHandler.DeactivateUser, s.minRole(entities.RoleAdmin))

	// Notification routes
	notificationGroup := v1.Group("/notifications")
	notificationGroup.GET("", notificationHandler.ListInbox)
	notificationGroup.GET("/stream", notificationHandler.Stream)
	notificationGroup.POST("/:id/read", notificationHandler.MarkRead)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)
	registry.MustRegister(services.MetricCollectors()...)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server and the overdue sweeper.
func (s *Server) Start(address string) error {
	s.sweeper.Start(context.Background())
	s.logger.Infow("starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server and stops the sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.sweeper.Stop()
	return s.echo.Shutdown(ctx)
}

// customErrorHandler maps domain errors onto HTTP status codes.
func customErrorHandler(appLogger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var msg interface{}

		switch {
		case entities.IsNotFound(err):
			code = http.StatusNotFound
			msg = map[string]string{"message": err.Error()}
		case entities.IsValidation(err):
			code = http.StatusBadRequest
			msg = map[string]string{"message": err.Error()}
		case entities.IsConflict(err):
			code = http.StatusConflict
			body := map[string]string{"message": err.Error()}
			var conflict *entities.ConflictError
			if errors.As(err, &conflict) && conflict.ExistingTaskID != uuid.Nil {
				body["existing_task_id"] = conflict.ExistingTaskID.String()
			}
			msg = body
		case entities.IsForbidden(err):
			code = http.StatusForbidden
			msg = map[string]string{"message": err.Error()}
		case errors.Is(err, entities.ErrUnauthorized):
			code = http.StatusUnauthorized
			msg = map[string]string{"message": err.Error()}
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
				msg = he.Message
				if he.Internal != nil {
					err = fmt.Errorf("%v, %v", err, he.Internal)
				}
			} else if ve, ok := err.(validator.ValidationErrors); ok {
				code = http.StatusBadRequest
				msg = map[string]string{"message": "validation failed", "details": ve.Error()}
			} else {
				msg = map[string]string{"message": http.StatusText(code)}
			}
		}

		if code == http.StatusInternalServerError {
			appLogger.Errorw("internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				appLogger.Errorw("error sending response", "error", err)
			}
		}
	}
}
