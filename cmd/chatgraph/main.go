// Command chatgraph runs the conversational agent.
//
//	chatgraph serve --config chatgraph.yaml
//	chatgraph chat --thread demo "What's new in Go?"
//	chatgraph chat --addr http://localhost:8080
//
// Credentials come from the environment or a .env file: OPENAI_API_KEY,
// OPENAI_BASE_URL, MODEL_NAME, TEMPERATURE, GOOGLE_API_KEY, GOOGLE_CSE_ID and
// CHATGRAPH_ADDR.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/chatgraph/kernel"
	"github.com/tailored-agentic-units/chatgraph/observability"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chatgraph",
		Short:         "Conversational agent with tools and rolling summaries",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML or JSON configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging to stderr")

	cmd.AddCommand(buildServeCmd(opts), buildChatCmd(opts))
	return cmd
}

// loadConfig resolves the configuration and installs the process logger as
// the "slog" observer.
func loadConfig(opts *rootOptions) (*kernel.Config, error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	cfg := kernel.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := kernel.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return &cfg, nil
}
