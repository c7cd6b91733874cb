package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/specsprite/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
generate_prd, continue_conversation and get_session_info tools. Completion
requests go to the connected client's model first, then to the configured
fallback transports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(false)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		mcpSrv := mcpserver.NewMCPServer(cfg.Server.Name)

		rt, err := buildRuntime(cfg, mcpSrv)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		rt.engine.Start(ctx, cfg.Conversation.SweepInterval())

		fmt.Fprintf(os.Stderr, "specsprite MCP server started on stdio (transports=%s)\n", strings.Join(cfg.LLM.Transports, ","))

		srv := mcpserver.NewServer(mcpSrv, rt.engine)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
