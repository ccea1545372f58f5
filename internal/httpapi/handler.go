// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpapi serves the executor and the project store over HTTP JSON.
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hako/durafmt"
	"github.com/pterm/pterm"

	"tenantforge/cli/internal/logging"
	"tenantforge/cli/internal/project"
	"tenantforge/cli/internal/rpc"
	"tenantforge/cli/internal/sqlexec"
)

// Projects is the subset of project.Service the API needs.
type Projects interface {
	Create(name, description string, tags []string) (project.Project, error)
	List() ([]project.Project, error)
	Get(id int64) (project.Project, error)
	SaveConnections(id int64, connections []json.RawMessage, useKeychain bool) error
}

// Handler holds the API dependencies.
type Handler struct {
	runner      rpc.Runner
	projects    Projects
	useKeychain bool
	logger      *pterm.Logger
}

// NewHandler creates a Handler. projects may be nil, which disables the
// project routes.
func NewHandler(runner rpc.Runner, projects Projects, useKeychain bool, logger *pterm.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{runner: runner, projects: projects, useKeychain: useKeychain, logger: logger}
}

// Router builds the gin engine with all routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/ping", Ping)
	r.POST("/execute", h.Execute)
	if h.projects != nil {
		r.GET("/projects", h.ListProjects)
		r.POST("/projects", h.CreateProject)
		r.GET("/projects/:id", h.GetProject)
		r.PUT("/projects/:id/connections", h.SaveConnections)
	}
	return r
}

func requestLogger(logger *pterm.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http", logger.Args(
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", durafmt.ParseShort(time.Since(start)).String()))
	}
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Execute runs one invocation. Tenant failures are part of a 200 response.
func (h *Handler) Execute(c *gin.Context) {
	var req sqlexec.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// a dropped client does not abort tenants mid-script
	report, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), req.SQL, req.Connections)
	if err != nil {
		if sqlexec.IsInvocationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("execute failed", h.logger.Args("error", logging.Mask(err.Error())))
		c.JSON(http.StatusInternalServerError, gin.H{"error": logging.Mask(err.Error())})
		return
	}
	c.JSON(http.StatusOK, report)
}

type createProjectRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	p, err := h.projects.Create(req.Name, req.Description, req.Tags)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProjects(c *gin.Context) {
	list, err := h.projects.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	p, err := h.projects.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SaveConnections replaces a project's connections with the JSON array in
// the body. A keychain query parameter overrides the server default.
func (h *Handler) SaveConnections(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var conns []json.RawMessage
	if err := c.ShouldBindJSON(&conns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: expected a JSON array of connections"})
		return
	}

	useKeychain := h.useKeychain
	if v := c.Query("keychain"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'keychain' query parameter"})
			return
		}
		useKeychain = b
	}

	if err := h.projects.SaveConnections(id, conns, useKeychain); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connections saved", "count": len(conns)})
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, project.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case stderrors.Is(err, project.ErrNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("project store", h.logger.Args("path", c.FullPath(), "error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
