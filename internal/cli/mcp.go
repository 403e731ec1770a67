package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewell/rre/engine"
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for repository retrieval",
	Long: `Start the Model Context Protocol (MCP) server that exposes the
engine's query, warm_index, and rebuild_index operations over stdio
to LLM-powered coding assistants.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "rre MCP server")
	fmt.Fprintf(cmd.ErrOrStderr(), "Repository: %s\n", root)

	e := engine.New(cfg, engine.Dependencies{Notify: consoleNotifier{}})

	if err := e.WarmIndex(ctx, root); err != nil {
		e.Shutdown()
		return fmt.Errorf("failed to warm index: %w", err)
	}

	srv := mcpserver.New(e, root)
	defer srv.Close()

	return srv.Serve(ctx)
}
