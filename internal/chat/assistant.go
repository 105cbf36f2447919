package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEmptyMessage is returned when the user sends only whitespace.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyReply is returned when the completion service answers with no text.
	ErrEmptyReply = errors.New("assistant returned an empty reply")
	// ErrNotConfigured is returned when no completion service is available.
	ErrNotConfigured = errors.New("chat assistant not configured")
)

// DefaultSystemPrompt frames the assistant. It sees only conversation text,
// never the feature row or attributions.
const DefaultSystemPrompt = `You are an HR analytics assistant embedded in an employee attrition risk tool.
Answer questions about employee retention, the factors that commonly drive attrition
(overtime, compensation, tenure, promotion gaps, satisfaction scores) and how to read
a risk probability or a SHAP feature-importance chart. You do not see the user's
prediction unless they paste it. Be concise and practical.`

// Completer produces the next assistant turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// Assistant answers chat turns within a Session.
type Assistant struct {
	completer Completer
	system    string
	logger    *zap.Logger
}

// NewAssistant wires a completer. An empty system prompt uses DefaultSystemPrompt.
func NewAssistant(completer Completer, system string, logger *zap.Logger) *Assistant {
	if system == "" {
		system = DefaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{completer: completer, system: system, logger: logger}
}

// Reply sends text with the session's history and records both turns. On
// failure the session is left unchanged so the user can try again.
func (a *Assistant) Reply(ctx context.Context, s *Session, text string) (Message, error) {
	if a == nil || a.completer == nil {
		return Message{}, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	user := Message{Role: RoleUser, Text: text, At: time.Now().UTC()}
	convo := append(s.History(), user)

	start := time.Now()
	out, err := a.completer.Complete(ctx, a.system, convo)
	if err != nil {
		a.logger.Warn("chat completion failed", zap.String("session", s.ID), zap.Error(err))
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Message{}, ErrEmptyReply
	}

	reply := Message{Role: RoleAssistant, Text: out, At: time.Now().UTC()}
	s.Append(user, reply)

	a.logger.Debug("chat turn",
		zap.String("session", s.ID),
		zap.Int("turns", s.Len()),
		zap.Duration("latency", time.Since(start)))
	return reply, nil
}
