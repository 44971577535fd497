// Package devserver is a development backend that serves the HTTP
// contract karasu consumes, backed by live host samples. It is meant for
// local work on the dashboard and as a realistic peer in tests.
package devserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/logger"
)

const (
	// ServiceName is reported by /api/health.
	ServiceName = "karasu dev backend"

	defaultLimit = 20

	shutdownTimeout = 5 * time.Second
)

// Server serves the backend contract.
type Server struct {
	sampler   Sampler
	allowKill bool
	version   string
	log       logger.Logger
	now       func() time.Time
	engine    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithAllowKill enables the kill_process action. It is refused otherwise.
func WithAllowKill(allow bool) Option {
	return func(s *Server) { s.allowKill = allow }
}

// WithVersion sets the version reported by /api/health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Server) { s.now = fn }
}

// New builds a server around sampler.
func New(sampler Sampler, opts ...Option) *Server {
	s := &Server{
		sampler: sampler,
		version: "dev",
		log:     logger.Noop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/command", s.command)
	api.POST("/ai/chat", s.chat)
	api.GET("/system/metrics", s.metrics)
	api.GET("/system/processes", s.processes)
	api.POST("/system/actions", s.actions)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("devserver: listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.log.Debug("devserver: %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), s.now().Sub(start))
	}
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"service":   ServiceName,
		"version":   s.version,
		"timestamp": s.timestamp(),
	})
}

type commandRequest struct {
	Command string `json:"command" binding:"required,max=500"`
}

func (s *Server) command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No command provided"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  s.answer(c.Request.Context(), strings.TrimSpace(req.Command)),
		"command":   req.Command,
		"timestamp": s.timestamp(),
	})
}

// answer produces a canned reply for the dashboard's quick commands.
func (s *Server) answer(ctx context.Context, command string) string {
	switch strings.ToLower(command) {
	case "time":
		return "It is " + s.now().Format("15:04:05")
	case "system info":
		info, err := s.sampler.SystemInfo(ctx)
		if err != nil {
			return "System information is unavailable"
		}
		return fmt.Sprintf("%v on %v %v", info["hostname"], info["os"], info["os_version"])
	case "open browser", "screenshot":
		return "The dev backend does not " + command
	default:
		return "Received command: " + command
	}
}

type chatRequest struct {
	Message string `json:"message" binding:"required,max=4000"`
	Context any    `json:"context"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":  "The dev backend has no assistant. You said: " + req.Message,
		"intent":    "unknown",
		"emotion":   "neutral",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) metrics(c *gin.Context) {
	m, err := s.sampler.Metrics(c.Request.Context())
	if err != nil {
		s.log.Warn("devserver: metrics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

type processesQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=cpu memory name pid"`
}

func (s *Server) processes(c *gin.Context) {
	var q processesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "cpu"
	}

	items, err := s.sampler.Processes(c.Request.Context())
	if err != nil {
		s.log.Warn("devserver: processes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rank(items, q.SortBy)
	if len(items) > q.Limit {
		items = items[:q.Limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"processes": items,
		"total":     len(items),
		"timestamp": s.timestamp(),
	})
}

// rank orders items the way the backend does: cpu and memory descending,
// name and pid ascending.
func rank(items []backend.ProcessInfo, sortBy string) {
	var less func(a, b backend.ProcessInfo) bool
	switch sortBy {
	case "memory":
		less = func(a, b backend.ProcessInfo) bool { return a.Memory > b.Memory }
	case "name":
		less = func(a, b backend.ProcessInfo) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "pid":
		less = func(a, b backend.ProcessInfo) bool { return a.PID < b.PID }
	default:
		less = func(a, b backend.ProcessInfo) bool { return a.CPU > b.CPU }
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

type actionRequest struct {
	Action string         `json:"action" binding:"required"`
	Params map[string]any `json:"params"`
}

func (s *Server) actions(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No action provided"})
		return
	}

	var (
		result map[string]any
		status = http.StatusInternalServerError
		err    error
	)
	switch req.Action {
	case backend.ActionCleanRAM:
		debug.FreeOSMemory()
		result = map[string]any{"message": "RAM cleaned", "details": "Returned free heap to the OS"}
	case backend.ActionGetSystemInfo:
		result, err = s.sampler.SystemInfo(c.Request.Context())
	case backend.ActionKillProcess:
		result, status, err = s.kill(c.Request.Context(), req.Params)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Action %q is not supported", req.Action),
		})
		return
	}

	if err != nil {
		s.log.Warn("devserver: %s: %v", req.Action, err)
		c.JSON(status, gin.H{"success": false, "action": req.Action, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"action":    req.Action,
		"result":    result,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) kill(ctx context.Context, params map[string]any) (map[string]any, int, error) {
	if !s.allowKill {
		return nil, http.StatusForbidden, stderrors.New("kill_process is disabled on this server (set devserver.allow_kill)")
	}
	pidValue, ok := params["pid"].(float64)
	pid := int(pidValue)
	if !ok || pid <= 0 || float64(pid) != pidValue {
		return nil, http.StatusBadRequest, stderrors.New("params.pid must be a positive integer")
	}

	name, err := s.sampler.Terminate(ctx, pid)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to terminate process %d: %w", pid, err)
	}
	s.log.Warn("devserver: terminated pid %d (%s)", pid, name)
	return map[string]any{"message": fmt.Sprintf("Process %d (%s) terminated", pid, name)}, 0, nil
}
