package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/logger"
	"github.com/spigell/uni-matcher/internal/matcher"
)

const (
	DefaultListen          = ":5000"
	DefaultShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
)

type Config struct {
	Listen string `mapstructure:"listen"`
	// Mode is the gin mode: debug, release or test.
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// Server exposes a Matcher over HTTP.
type Server struct {
	cfg     Config
	version string
	matcher *matcher.Matcher
	engine  *gin.Engine
	logger  *zap.Logger
}

func New(m *matcher.Matcher, cfg Config, version string, log *zap.Logger) (*Server, error) {
	if m == nil {
		return nil, errors.New("matcher is required")
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = gin.ReleaseMode
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("unknown server mode: %s", cfg.Mode)
	}
	gin.SetMode(cfg.Mode)

	s := &Server{
		cfg:     cfg,
		version: version,
		matcher: m,
		logger:  logger.ForComponent(log, "server"),
	}
	s.engine = s.routes()

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		requestID(),
		accessLog(s.logger),
		gin.CustomRecoveryWithWriter(io.Discard, s.handlePanic),
		cors(),
	)

	r.GET("/", s.home)

	api := r.Group("/api")
	api.GET("/universities", s.universities)
	api.POST("/recommend", s.recommend)
	api.GET("/countries", s.countries)
	api.GET("/stats", s.stats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, failure("Endpoint not found"))
	})

	return r
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("address", s.cfg.Listen), zap.String("mode", s.cfg.Mode))

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.logger.Error("panic recovered",
		zap.Any("panic", recovered),
		zap.String(logger.FieldRequestID, c.GetString(requestIDKey)),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, failure("Internal server error"))
}
