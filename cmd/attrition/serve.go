package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attrition-risk/internal/chat"
	"github.com/danielpatrickdp/attrition-risk/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the attrition web form",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr / $PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	assessor, err := newAssessor(cfg)
	if err != nil {
		return err
	}
	scorer, err := dialScorer(cfg)
	if err != nil {
		return err
	}
	defer scorer.Close()

	recorder, closeStore, err := openRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	assistant, err := newAssistant(ctx, cfg)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := web.NewServer(web.Options{
		Builder:       builder,
		Assessor:      assessor,
		Scorer:        scorer,
		Assistant:     assistant,
		Sessions:      chat.NewSessionStore(),
		Recorder:      recorder,
		Logger:        logger,
		ScorerTimeout: cfg.ScorerTimeout(),
		ChatTimeout:   cfg.ChatTimeout(),
		TopN:          15,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	logger.Info("attrition form ready",
		zap.String("addr", addr),
		zap.String("scorer", cfg.Scorer.Addr),
		zap.String("catalog", builder.Catalog().Name()),
		zap.Bool("chat", assistant != nil))
	return srv.Serve(ctx, addr, cfg.ShutdownTimeout())
}
