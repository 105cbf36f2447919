// Package web serves the attrition form and its JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attrition-risk/internal/chat"
	"github.com/danielpatrickdp/attrition-risk/internal/codec"
	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// SessionCookie carries the chat session ID.
const SessionCookie = "attrition_session"

// #region collaborators
// Scorer is the classifier/explainer sidecar.
type Scorer interface {
	Predict(ctx context.Context, row features.Row) (codec.Prediction, error)
	Explain(ctx context.Context, row features.Row) (codec.Explanation, error)
}

// Recorder receives one audit entry per prediction served.
type Recorder interface {
	Record(entry logging.PredictionEntry) string
}

// #endregion collaborators

// #region options
// Options wires a Server. Builder, Assessor and Scorer are required.
type Options struct {
	Builder  *features.Builder
	Assessor *risk.Assessor
	Scorer   Scorer

	// Assistant may be nil; chat endpoints then answer 503.
	Assistant *chat.Assistant
	Sessions  *chat.SessionStore
	Recorder  Recorder
	Logger    *zap.Logger

	ScorerTimeout time.Duration
	ChatTimeout   time.Duration
	// TopN bounds the bars in an explanation; 0 keeps every feature.
	TopN int
}

// #endregion options

// #region server
// Server handles form and API requests. It holds no per-request state apart
// from the chat session store.
type Server struct {
	opts   Options
	logger *zap.Logger
	index  *template.Template
	router *gin.Engine
}

// NewServer validates opts and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Builder == nil || opts.Assessor == nil || opts.Scorer == nil {
		return nil, errors.New("web: builder, assessor and scorer are required")
	}
	if opts.Sessions == nil {
		opts.Sessions = chat.NewSessionStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ScorerTimeout <= 0 {
		opts.ScorerTimeout = 10 * time.Second
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = 60 * time.Second
	}

	index, err := parseIndex()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger.Named("web"),
		index:  index,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api/v1")
	{
		api.GET("/catalog", s.handleCatalog)
		api.POST("/predict", s.handlePredict)
		api.POST("/explain", s.handleExplain)
		api.POST("/explain/chart.png", s.handleExplainChart)
		api.POST("/assess", s.handleAssess)
		api.POST("/chat", s.handleChat)
		api.POST("/chat/reset", s.handleChatReset)
		api.GET("/chat/history", s.handleChatHistory)
	}
	return r
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then drains for up to
// shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.serve(ctx, ln, shutdownTimeout)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

// #endregion server

// #region middleware
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// #endregion middleware
