package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codewell/rre/engine"
	"github.com/codewell/rre/internal/config"
)

var rebuildQuietFlag bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Force a from-scratch rebuild of the repository index",
	Long: `rebuild discards any existing index state and reindexes the whole
repository, emitting start/complete notifications as it goes.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rebuildCmd.Flags().BoolVarP(&rebuildQuietFlag, "quiet", "q", false, "suppress non-error output")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	e := engine.New(cfg, engine.Dependencies{
		Notify:          consoleNotifier{quiet: rebuildQuietFlag},
		OnIndexProgress: newIndexProgressBar(rebuildQuietFlag),
	})
	defer e.Shutdown()

	// WarmIndex first so RebuildIndex has a root/branch-cache/debouncer
	// to work against; its own load attempt is wasted work here but
	// cheap relative to the rebuild that follows.
	if err := e.WarmIndex(ctx, root); err != nil {
		return fmt.Errorf("failed to warm index: %w", err)
	}
	if err := e.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	return nil
}
