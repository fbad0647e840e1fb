package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/chatgraph/kernel"
	"github.com/tailored-agentic-units/chatgraph/server"
)

func buildServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Submit RPC with health and metrics endpoints",
		Example: `  chatgraph serve
  chatgraph serve --config chatgraph.yaml --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			k, err := kernel.New(cfg)
			if err != nil {
				return err
			}
			defer k.Close()

			var gatherer prometheus.Gatherer
			if reg := k.Metrics(); reg != nil {
				gatherer = reg
			}

			router := server.NewRouter(k, gatherer, k.Observer())
			return server.New(cfg.Server, router, k.Observer()).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config and CHATGRAPH_ADDR)")
	return cmd
}

func buildChatCmd(root *rootOptions) *cobra.Command {
	var (
		addr     string
		threadID string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the agent, locally or against a running server",
		Long: `Chat with the agent. With a message argument a single turn is run;
otherwise lines are read from stdin until EOF or /exit. Every turn of the
session uses the same thread id.`,
		Example: `  chatgraph chat "What is the capital of France?"
  chatgraph chat --thread demo
  chatgraph chat --addr http://localhost:8080 --thread demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if threadID == "" {
				threadID = uuid.NewString()
			}

			var sub server.Submitter
			if addr != "" {
				sub = server.NewClient(http.DefaultClient, addr)
			} else {
				cfg, err := loadConfig(root)
				if err != nil {
					return err
				}
				k, err := kernel.New(cfg)
				if err != nil {
					return err
				}
				defer k.Close()
				sub = k
			}

			fmt.Fprintf(os.Stderr, "thread %s\n", threadID)

			if len(args) > 0 {
				return turn(cmd.Context(), sub, threadID, strings.Join(args, " "), cmd.OutOrStdout())
			}
			return repl(cmd.Context(), sub, threadID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server base URL; runs locally when empty")
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread id (default: a new random id)")
	return cmd
}
