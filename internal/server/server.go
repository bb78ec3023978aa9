package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AndresProano/CleaningDataIt/internal/aggregator"
	"github.com/AndresProano/CleaningDataIt/internal/hub"
	"github.com/AndresProano/CleaningDataIt/internal/model"
)

const (
	recentSize   = 200
	defaultLimit = 50
)

// Server holds the Gin engine and dependencies for the dashboard API.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	metrics    *Metrics
	port       string

	mu     sync.RWMutex
	recent []model.Row // ring buffer of the last recentSize rows
	next   int
	full   bool
}

// New creates the dashboard server.
func New(h *hub.Hub, agg *aggregator.Aggregator, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		metrics:    NewMetrics(h, agg),
		port:       port,
		recent:     make([]model.Row, recentSize),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"uptime":          stats.Uptime,
			"files_watched":   stats.FilesWatched,
			"records_per_sec": stats.RecordsPerSec,
			"dropped":         stats.Dropped,
		})
	})

	// Run statistics.
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	// Most recent rows, oldest first.
	s.engine.GET("/api/records", s.handleRecords)

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// Prometheus.
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

func (s *Server) handleRecords(c *gin.Context) {
	limit := defaultLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	rows := s.Recent(limit)
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "records": rows})
}

// Collect consumes a hub subscription, keeping the recent rows and the
// Prometheus counters current. It returns when rows is closed or ctx ends.
func (s *Server) Collect(ctx context.Context, rows <-chan model.Row) {
	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-rows:
			if !ok {
				return
			}
			s.remember(row)
			s.metrics.Observe(row)
		}
	}
}

func (s *Server) remember(row model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent[s.next] = row
	s.next = (s.next + 1) % recentSize
	if s.next == 0 {
		s.full = true
	}
}

// Recent returns up to limit of the latest rows, oldest first.
func (s *Server) Recent(limit int) []model.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.next
	if s.full {
		n = recentSize
	}
	if limit > n {
		limit = n
	}
	out := make([]model.Row, 0, limit)
	for i := limit; i > 0; i-- {
		out = append(out, s.recent[(s.next-i+recentSize)%recentSize])
	}
	return out
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
