package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attrition-risk/internal/chat"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the HR assistant in the terminal",
	Long: `Starts an interactive session with the HR assistant. The conversation is
kept for the life of the session.

Commands:
  /reset   clear the conversation
  quit     exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "print replies without markdown rendering")
}

// #region main
func runChat(cmd *cobra.Command, args []string) error {
	assistant, err := newAssistant(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if assistant == nil {
		return chat.ErrNotConfigured
	}

	render := func(s string) string { return s + "\n" }
	if !chatPlain {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		render = func(s string) string {
			out, err := renderer.Render(s)
			if err != nil {
				return s + "\n"
			}
			return out
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Attrition HR assistant ready.")
	fmt.Fprintf(out, "  Model: %s\n", cfg.Chat.Model)
	fmt.Fprintln(out, "Ask a question (/reset to clear, 'quit' to exit):")

	return chatLoop(cmd.Context(), cmd.InOrStdin(), out, assistant, chat.NewSession(), render, cfg.ChatTimeout())
}

// chatLoop reads one question per line until EOF or quit. Failed turns are
// reported and the loop continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, assistant *chat.Assistant,
	session *chat.Session, render func(string) string, timeout time.Duration) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}
		if text == "/reset" {
			session.Reset()
			fmt.Fprintln(out, "[conversation cleared]")
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, timeout)
		reply, err := assistant.Reply(turnCtx, session, text)
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("chat turn failed", zap.String("session", session.ID), zap.Error(err))
			fmt.Fprintf(out, "[error] %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s\n", render(reply.Text))
	}
	return scanner.Err()
}

// #endregion main
