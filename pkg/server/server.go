package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/duynguyendang/decviz/pkg/examples"
	"github.com/duynguyendang/decviz/pkg/metrics"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/duynguyendang/decviz/pkg/share"
	"github.com/gin-gonic/gin"
)

// Server holds the state for the REST API server.
type Server struct {
	graphService *service.GraphService
	shares       *share.Store
	examples     *examples.Catalog
	metrics      *metrics.Metrics
	router       *gin.Engine
}

// NewServer creates a new Server instance. shares and m may be nil, which
// disables sharing and metrics respectively.
func NewServer(svc *service.GraphService, shares *share.Store, catalog *examples.Catalog, m *metrics.Metrics) *Server {
	if catalog == nil {
		catalog = examples.NewCatalog(nil)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(), observe(m))

	s := &Server{
		graphService: svc,
		shares:       shares,
		examples:     catalog,
		metrics:      m,
		router:       r,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/logica", s.handleLogica)
	s.router.POST("/v1/dot-to-svg", s.handleDotToSVG)
	s.router.POST("/v1/share", s.handleShareSave)
	s.router.GET("/v1/share", s.handleShareLoad)
	s.router.GET("/v1/share/:id", s.handleShareLoad)
	s.router.GET("/v1/examples", s.handleExamples)
	s.router.GET("/v1/examples/:id", s.handleExample)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
