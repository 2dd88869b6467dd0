package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	feedmemcp "github.com/valter-silva-au/feedme/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the feedme MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feedme MCP server on stdio",
	Long: `Start the feedme MCP server on stdio transport.

The server exposes feedme as MCP tools that AI assistants can call:
today_list, get_task, list_tasks, create_task, update_task_status,
snooze_task, start_focus, tick, cancel_focus, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		cfg := currentConfig()
		srv := feedmemcp.NewServer(TaskMgr, MetricsCalc, AlertEngine, appVersion, feedmemcp.WithDefaults(&cfg))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
