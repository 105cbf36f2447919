package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
	"github.com/danielpatrickdp/attrition-risk/internal/chat"
	"github.com/danielpatrickdp/attrition-risk/internal/codec"
	"github.com/danielpatrickdp/attrition-risk/internal/config"
	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
	"github.com/danielpatrickdp/attrition-risk/internal/store"
)

// #region wiring
func loadCatalog(c *config.Config) (*catalog.Catalog, error) {
	if c.Catalog.Path == "" {
		return catalog.Default()
	}
	return catalog.Load(c.Catalog.Path)
}

func newBuilder(c *config.Config) (*features.Builder, error) {
	cat, err := loadCatalog(c)
	if err != nil {
		return nil, err
	}
	logUnmapped(cat)
	return features.NewBuilder(cat), nil
}

func logUnmapped(cat *catalog.Catalog) {
	for _, u := range cat.Unmapped() {
		logger.Warn("dropdown option has no catalog column",
			zap.String("field", u.Field),
			zap.String("option", u.Option),
			zap.String("column", u.Column))
	}
}

func newAssessor(c *config.Config) (*risk.Assessor, error) {
	rc, err := c.RiskConfig()
	if err != nil {
		return nil, err
	}
	return risk.NewAssessor(rc)
}

func dialScorer(c *config.Config) (*codec.ScoringClient, error) {
	client, err := codec.NewScoringClient(c.Scorer.Addr)
	if err != nil {
		return nil, fmt.Errorf("connect to scoring service at %s: %w", c.Scorer.Addr, err)
	}
	return client, nil
}

// openRecorder opens the audit log. The returned close func is never nil.
func openRecorder(c *config.Config) (*logging.Recorder, func(), error) {
	if c.Store.Disabled {
		return logging.NewRecorder(nil, logger.Named("audit")), func() {}, nil
	}
	st, err := store.NewStore(c.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log %s: %w", c.Store.Path, err)
	}
	return logging.NewRecorder(st.DB(), logger.Named("audit")), func() { st.Close() }, nil
}

// newAssistant returns nil when no API key is configured.
func newAssistant(ctx context.Context, c *config.Config) (*chat.Assistant, error) {
	if !c.ChatEnabled() {
		logger.Info("chat assistant disabled: GEMINI_API_KEY not set")
		return nil, nil
	}
	completer, err := chat.NewGeminiCompleter(ctx, c.Chat.APIKey, c.Chat.Model)
	if err != nil {
		return nil, err
	}
	return chat.NewAssistant(completer, c.Chat.SystemPrompt, logger.Named("chat")), nil
}

// #endregion wiring
