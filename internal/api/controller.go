package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/logger"
	"github.com/tphakala/notekeeper/internal/notes"
)

// healthPingTimeout bounds the database ping of the health check.
const healthPingTimeout = 2 * time.Second

// Database states reported by the health check.
const (
	DatabaseConnected   = "connected"
	DatabaseUnavailable = "unavailable"
)

// Controller holds the route handlers and their dependencies.
type Controller struct {
	service *notes.Service
	store   *datastore.Store
	log     logger.Logger
	now     func() time.Time
}

// NewController creates a Controller. The store is only used for health checks.
func NewController(service *notes.Service, store *datastore.Store, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Controller{
		service: service,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// RegisterRoutes attaches the note and audit routes to e.
func (c *Controller) RegisterRoutes(e *echo.Echo) {
	e.GET("/", c.HealthCheck)

	g := e.Group("/notes")
	g.POST("", c.CreateNote)
	g.GET("", c.ListNotes)
	g.GET("/:id", c.GetNote)
	g.PUT("/:id", c.UpdateNote)
	g.DELETE("/:id", c.DeleteNote)

	e.GET("/audit", c.ListAudit)
	e.GET("/audit/:id", c.GetAuditEntry)
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Message   string `json:"message"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck reports service liveness and database reachability. It always
// answers 200 so load balancers keep routing while the database recovers.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	status := DatabaseConnected
	if c.store == nil {
		status = DatabaseUnavailable
	} else {
		pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthPingTimeout)
		defer cancel()
		if err := c.store.Ping(pingCtx); err != nil {
			c.log.Warn("health check database ping failed", logger.Error(err))
			status = DatabaseUnavailable
		}
	}

	return ctx.JSON(http.StatusOK, HealthResponse{
		Message:   "Healthy",
		Database:  status,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	})
}
