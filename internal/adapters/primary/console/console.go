package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vibin/search-agent/internal/core/services"
	"github.com/vibin/search-agent/internal/logger"
)

const prompt = "> "

var exitCommands = map[string]bool{"exit": true, "quit": true, "q": true}

// Console is a line-oriented REPL over one chat
type Console struct {
	service *services.ChatService
	in      io.Reader
	out     io.Writer
	logger  logger.Logger
}

// NewConsole creates a new Console
func NewConsole(service *services.ChatService, in io.Reader, out io.Writer, log logger.Logger) *Console {
	return &Console{
		service: service,
		in:      in,
		out:     out,
		logger:  log,
	}
}

// Run reads user lines until an exit command, EOF or ctx cancellation. Model text is
// written as it streams. A failed turn is reported and the session continues.
func (c *Console) Run(ctx context.Context) error {
	chat, err := c.service.CreateChat(ctx, "console")
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			return nil
		}

		streamed := false
		_, result, err := c.service.SendMessage(ctx, chat.ID, line, func(text string) {
			streamed = true
			fmt.Fprint(c.out, text)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Error("Turn failed", "chat_id", chat.ID, "error", err)
			fmt.Fprintf(c.out, "\n[error] %v\n", err)
			continue
		}
		if !streamed {
			fmt.Fprint(c.out, result.Answer)
		}
		if !result.Done {
			fmt.Fprint(c.out, "\n[stopped: step limit reached]")
		}
		fmt.Fprintln(c.out)
	}
}
