package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/adapters/primary/console"
	httpHandler "github.com/vibin/search-agent/internal/adapters/primary/http"
	"github.com/vibin/search-agent/internal/logger"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "agent",
		Short:        "Web-search research agent",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: $CONFIG_PATH or config/config.json)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		chatCmd(opts),
		askCmd(opts),
		searchCmd(opts),
		serveCmd(opts),
		configCmd(opts),
	)
	return root
}

// load reads the configuration and builds a logger writing to w
func (o *rootOptions) load(w io.Writer) (*config.Config, logger.Logger, error) {
	path := o.configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	level := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if o.debug {
		level = slog.LevelDebug
	}
	return cfg, logger.New(level, w), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func chatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session; type exit, quit or q to leave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			err = console.NewConsole(a.chats, cmd.InOrStdin(), cmd.OutOrStdout(), log).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func askCmd(opts *rootOptions) *cobra.Command {
	var stream bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			chat, err := a.chats.CreateChat(ctx, "ask")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var onText func(string)
			if stream {
				onText = func(text string) { fmt.Fprint(out, text) }
			}
			_, result, err := a.chats.SendMessage(ctx, chat.ID, strings.Join(args, " "), onText)
			if err != nil {
				return err
			}
			if !stream {
				fmt.Fprint(out, result.Answer)
			}
			fmt.Fprintln(out)
			if !result.Done {
				log.Warn("Answer may be incomplete: step limit reached", "steps", result.Steps)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the answer as it is generated")
	return cmd
}

func searchCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run the web_search tool and print its JSON result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newSearchApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			results := a.search.Search(ctx, strings.Join(args, " "))
			var payload any = results
			if !raw {
				payload = a.search.Shape(results)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print every source before shrinking")
	return cmd
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(os.Stdout)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			handler := httpHandler.NewHandler(a.chats, a.search, a.metrics, log)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      handler,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 6 * time.Minute, // turns can run several model calls and fetches
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Starting HTTP server", "port", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info("Shutting down server...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("Server forced to shutdown", "error", err)
			}

			log.Info("Server exited")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func configCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load(io.Discard)
			if err != nil {
				return err
			}
			if out != "" {
				return config.SaveConfig(cfg, out)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg.Redacted())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
