package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/attrition-risk/internal/chat"
	"github.com/danielpatrickdp/attrition-risk/internal/explain"
	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// #region payloads
type selectionRequest struct {
	Selection features.Selection `json:"selection"`
	SessionID string             `json:"session_id,omitempty"`
}

type predictResponse struct {
	ID                 string   `json:"id,omitempty"`
	Label              int      `json:"label"`
	ModelLabel         string   `json:"model_label"`
	Probability        float64  `json:"probability"`
	ProbabilityPercent string   `json:"probability_percent"`
	Threshold          float64  `json:"threshold"`
	ThresholdPercent   string   `json:"threshold_percent"`
	AtRisk             bool     `json:"at_risk"`
	RiskLabel          string   `json:"risk_label"`
	Reason             string   `json:"reason"`
	Skipped            []string `json:"skipped,omitempty"`
}

type explainResponse struct {
	BaseValue     float64                `json:"base_value"`
	Contributions []explain.Contribution `json:"contributions"`
}

type assessResponse struct {
	Prediction  predictResponse `json:"prediction"`
	Explanation explainResponse `json:"explanation"`
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Turns     int    `json:"turns"`
}

// #endregion payloads

// #region pages
func (s *Server) handleIndex(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.index.Execute(&buf, newIndexData(s.opts.Builder.Catalog(), s.opts.Assessor, s.opts.Assistant != nil)); err != nil {
		s.logger.Error("render index", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"catalog": s.opts.Builder.Catalog().Name(),
		"chat":    s.opts.Assistant != nil,
	})
}

func (s *Server) handleCatalog(c *gin.Context) {
	cat := s.opts.Builder.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"catalog":         cat.Spec(),
		"widget_defaults": cat.WidgetDefaults(),
		"threshold":       float64(s.opts.Assessor.Threshold()),
	})
}

// #endregion pages

// #region scoring
func (s *Server) handlePredict(c *gin.Context) {
	req, row, ok := s.bindRow(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.ScorerTimeout)
	defer cancel()

	resp, entry, err := s.predict(ctx, req, row)
	if err != nil {
		s.upstreamError(c, "scoring service", err)
		return
	}
	resp.ID = s.record(entry)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleExplain(c *gin.Context) {
	_, row, ok := s.bindRow(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.ScorerTimeout)
	defer cancel()

	resp, err := s.explain(ctx, row)
	if err != nil {
		s.upstreamError(c, "explainer", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleExplainChart(c *gin.Context) {
	_, row, ok := s.bindRow(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.ScorerTimeout)
	defer cancel()

	resp, err := s.explain(ctx, row)
	if err != nil {
		s.upstreamError(c, "explainer", err)
		return
	}
	var buf bytes.Buffer
	if err := explain.RenderPNG(&buf, resp.Contributions, explain.DefaultChartOptions()); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleAssess predicts and explains the same row concurrently. The first
// failure cancels the other call.
func (s *Server) handleAssess(c *gin.Context) {
	req, row, ok := s.bindRow(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.ScorerTimeout)
	defer cancel()

	var (
		out   assessResponse
		entry logging.PredictionEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, e, err := s.predict(gctx, req, row)
		out.Prediction, entry = p, e
		return err
	})
	g.Go(func() error {
		e, err := s.explain(gctx, row)
		out.Explanation = e
		return err
	})
	if err := g.Wait(); err != nil {
		s.upstreamError(c, "scoring service", err)
		return
	}
	// Only a fully served assessment reaches the audit log.
	out.Prediction.ID = s.record(entry)
	c.JSON(http.StatusOK, out)
}

// predict scores row and returns the audit entry for it. Callers record the
// entry once the whole response has been served.
func (s *Server) predict(ctx context.Context, req selectionRequest, row features.Row) (predictResponse, logging.PredictionEntry, error) {
	pred, err := s.opts.Scorer.Predict(ctx, row)
	if err != nil {
		return predictResponse{}, logging.PredictionEntry{}, err
	}
	a, err := s.opts.Assessor.Assess(pred.Probability)
	if err != nil {
		return predictResponse{}, logging.PredictionEntry{}, err
	}

	resp := predictResponse{
		Label:              pred.Label,
		ModelLabel:         risk.ModelLabel(pred.Label),
		Probability:        float64(a.Probability),
		ProbabilityPercent: a.ProbabilityPercent(),
		Threshold:          float64(a.Threshold),
		ThresholdPercent:   a.ThresholdPercent(),
		AtRisk:             a.AtRisk,
		RiskLabel:          a.Label,
		Reason:             a.Reason,
		Skipped:            row.Skipped(),
	}
	rowJSON, _ := row.MarshalJSON()
	selJSON, _ := json.Marshal(req.Selection)
	entry := logging.PredictionEntry{
		SessionID:     req.SessionID,
		Source:        logging.SourceWeb,
		SelectionJSON: string(selJSON),
		RowJSON:       string(rowJSON),
		Label:         pred.Label,
		Probability:   float64(a.Probability),
		Threshold:     float64(a.Threshold),
		AtRisk:        a.AtRisk,
		Reason:        a.Reason,
	}
	return resp, entry, nil
}

func (s *Server) record(entry logging.PredictionEntry) string {
	if s.opts.Recorder == nil {
		return ""
	}
	return s.opts.Recorder.Record(entry)
}

func (s *Server) explain(ctx context.Context, row features.Row) (explainResponse, error) {
	exp, err := s.opts.Scorer.Explain(ctx, row)
	if err != nil {
		return explainResponse{}, err
	}
	contribs, err := explain.Rank(row.Columns(), exp.Attributions, s.opts.TopN)
	if err != nil {
		return explainResponse{}, err
	}
	return explainResponse{BaseValue: exp.BaseValue, Contributions: contribs}, nil
}

// #endregion scoring

// #region chat
func (s *Server) handleChat(c *gin.Context) {
	if s.opts.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": chat.ErrNotConfigured.Error()})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session := s.session(c, req.SessionID)
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.ChatTimeout)
	defer cancel()

	reply, err := s.opts.Assistant.Reply(ctx, session, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "session_id": session.ID})
		return
	case err != nil:
		s.upstreamError(c, "chat assistant", err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{SessionID: session.ID, Reply: reply.Text, Turns: session.Len()})
}

func (s *Server) handleChatReset(c *gin.Context) {
	var req chatRequest
	// An empty body is fine; the cookie identifies the session.
	_ = c.ShouldBindJSON(&req)

	id := req.SessionID
	if id == "" {
		id, _ = c.Cookie(SessionCookie)
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "reset": s.opts.Sessions.Reset(id)})
}

func (s *Server) handleChatHistory(c *gin.Context) {
	id := c.Query("session_id")
	if id == "" {
		id, _ = c.Cookie(SessionCookie)
	}
	session, ok := s.opts.Sessions.Get(id)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"session_id": "", "messages": []chat.Message{}})
		return
	}
	msgs := session.History()
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "messages": msgs})
}

// session resolves the caller's chat session from the request body or the
// cookie, creating one when neither names a live session.
func (s *Server) session(c *gin.Context, id string) *chat.Session {
	if id == "" {
		id, _ = c.Cookie(SessionCookie)
	}
	session, created := s.opts.Sessions.GetOrCreate(id)
	if created {
		s.logger.Debug("chat session started", zap.String("session", session.ID))
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, session.ID, 0, "/", "", false, true)
	return session
}

// #endregion chat

// #region errors
// bindRow decodes a selection and builds its row, answering 400 on failure.
func (s *Server) bindRow(c *gin.Context) (selectionRequest, features.Row, bool) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, features.Row{}, false
	}
	if req.SessionID == "" {
		req.SessionID, _ = c.Cookie(SessionCookie)
	}
	row, err := s.opts.Builder.Build(req.Selection)
	if err != nil {
		c.JSON(http.StatusBadRequest, builderError(err))
		return req, features.Row{}, false
	}
	return req, row, true
}

func builderError(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var mismatch *features.MismatchError
	var coercion *features.CoercionError
	var invalid *features.ValidationError
	switch {
	case errors.As(err, &mismatch):
		body["field"] = mismatch.Field
		body["key"] = mismatch.Key
	case errors.As(err, &coercion):
		body["field"] = coercion.Field
	case errors.As(err, &invalid):
		body["field"] = invalid.Field
	}
	return body
}

// upstreamError reports a collaborator failure without retrying. The page
// shows the message and stays usable.
func (s *Server) upstreamError(c *gin.Context, what string, err error) {
	c.Error(err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, chat.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": what + " failed: " + err.Error()})
}

// #endregion errors
