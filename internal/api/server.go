// Package api serves the task dashboard as a local JSON API.
//
// Every request runs its own dashboard controller, so a response always
// carries the re-listed snapshot and the notifications of that request only.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/dashboard"
	"taskflow/internal/export"
	"taskflow/internal/service"
)

// Server is the local API server.
type Server struct {
	svc    service.Service
	log    *slog.Logger
	router *gin.Engine
}

// NewServer creates a server over a task repository.
func NewServer(svc service.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	router := gin.New()
	s := &Server{svc: svc, log: log, router: router}

	router.Use(gin.Recovery(), s.logRequests)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleList)
		api.POST("/tasks", s.handleCreate)
		api.PATCH("/tasks/:id", s.handleSetStatus)
		api.DELETE("/tasks/:id", s.handleDelete)
		api.GET("/profile", s.handleProfile)
		api.GET("/export", s.handleExport)
	}

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// notification is the wire form of a dashboard notification.
type notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// snapshot is the response body of every task endpoint.
type snapshot struct {
	Tasks         []service.Task `json:"tasks"`
	Notifications []notification `json:"notifications"`
	Error         string         `json:"error,omitempty"`
}

// controller returns a fresh controller and the recorder of its notifications.
func (s *Server) controller() (*dashboard.Controller, *dashboard.Recorder) {
	rec := &dashboard.Recorder{}
	return dashboard.NewController(s.svc, dashboard.Tee{rec, dashboard.LogNotifier{Log: s.log}}), rec
}

func (s *Server) respond(c *gin.Context, okStatus int, state dashboard.State, err error, rec *dashboard.Recorder) {
	body := snapshot{Tasks: state.Tasks, Notifications: []notification{}}
	if body.Tasks == nil {
		body.Tasks = []service.Task{}
	}
	for _, n := range rec.All() {
		w := notification{Level: n.Level.String(), Message: n.Message}
		if n.Err != nil {
			w.Error = n.Err.Error()
		}
		body.Notifications = append(body.Notifications, w)
	}

	status := okStatus
	if err != nil {
		status = statusFor(err)
		body.Error = err.Error()
	}
	c.JSON(status, body)
}

func (s *Server) handleList(c *gin.Context) {
	ctrl, rec := s.controller()
	state := ctrl.Refresh(c.Request.Context())
	s.respond(c, http.StatusOK, state, state.Err, rec)
}

func (s *Server) handleCreate(c *gin.Context) {
	var d service.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, rec := s.controller()
	state, err := ctrl.Submit(c.Request.Context(), d)
	if err == nil {
		s.respond(c, http.StatusCreated, state, nil, rec)
		return
	}
	// A failed submit does not re-list; show the current snapshot anyway.
	state = ctrl.Refresh(c.Request.Context())
	s.respond(c, http.StatusCreated, state, err, rec)
}

type statusRequest struct {
	Status service.Status `json:"status"`
}

func (s *Server) handleSetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	ctrl, rec := s.controller()
	state, err := ctrl.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	s.respond(c, http.StatusOK, state, err, rec)
}

func (s *Server) handleDelete(c *gin.Context) {
	ctrl, rec := s.controller()
	state, err := ctrl.Remove(c.Request.Context(), c.Param("id"))
	s.respond(c, http.StatusOK, state, err, rec)
}

func (s *Server) handleProfile(c *gin.Context) {
	p, err := s.svc.Profile(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleExport(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatJSON)
	data, err := export.NewExporter(s.svc).Export(c.Request.Context(), format)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, export.ContentType(format), data)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Info("api request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.ValidationFailure:
		return http.StatusBadRequest
	case service.NotFoundFailure:
		return http.StatusNotFound
	case service.AuthFailure:
		return http.StatusUnauthorized
	case service.UnsupportedFailure:
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
