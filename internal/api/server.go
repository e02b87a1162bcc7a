// Package api exposes probe results over HTTP for the -serve mode. The
// surface is intentionally small: enumerate models, probe on demand, and a
// health check.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/modelprobe/modelprobe/internal/config"
	"github.com/modelprobe/modelprobe/internal/probe"
	log "github.com/sirupsen/logrus"
)

// prober abstracts the probe engine for handler construction and tests.
type prober interface {
	ProbeModel(ctx context.Context, modelID string) *probe.Result
	ProbeModels(ctx context.Context, modelIDs []string) []*probe.Result
	ListModels(ctx context.Context) ([]string, error)
}

// Handler carries the dependencies shared by the report endpoints.
type Handler struct {
	engine prober
}

// NewHandler creates a report API handler bound to the given engine.
func NewHandler(engine prober) *Handler {
	return &Handler{engine: engine}
}

type probeRequest struct {
	Model   string `json:"model"`
	Pattern string `json:"pattern"`
}

// GetModels enumerates the upstream endpoint's models. Enumeration failures
// surface as 502 because the prober itself is healthy; the upstream is not.
func (h *Handler) GetModels(c *gin.Context) {
	models, err := h.engine.ListModels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// PostProbe runs the capability probe sequence. The body names either one
// model or a pattern matched against the upstream listing.
func (h *Handler) PostProbe(c *gin.Context) {
	var req probeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	switch {
	case strings.TrimSpace(req.Model) != "":
		result := h.engine.ProbeModel(c.Request.Context(), strings.TrimSpace(req.Model))
		c.JSON(http.StatusOK, result)
	case strings.TrimSpace(req.Pattern) != "":
		models, err := h.engine.ListModels(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		matched := probe.FilterModels(models, req.Pattern)
		if len(matched) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no models match pattern %q", req.Pattern)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": h.engine.ProbeModels(c.Request.Context(), matched)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "model or pattern is required"})
		return
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewRouter assembles the gin engine with all report routes registered.
func NewRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handler.Healthz)
	v0 := router.Group("/v0")
	{
		v0.GET("/models", handler.GetModels)
		v0.POST("/probe", handler.PostProbe)
	}
	return router
}

// Run starts the report server and blocks until it exits.
func Run(cfg *config.Config, engine prober) error {
	router := NewRouter(NewHandler(engine))
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Infof("report server listening on %s", addr)
	return router.Run(addr)
}
