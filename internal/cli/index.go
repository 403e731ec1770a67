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

var (
	indexWatchFlag bool
	indexQuietFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the repository (or load its existing snapshot)",
	Long: `index warms the retrieval index for the current repository: it
loads the existing on-disk snapshot (or the branch-aware snapshot
cache) if one is current, otherwise indexes the repository from
scratch. With --watch it stays running afterwards, keeping the index
current as files change until interrupted.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexWatchFlag, "watch", "w", false, "keep running and incrementally reindex on file changes")
	indexCmd.Flags().BoolVarP(&indexQuietFlag, "quiet", "q", false, "suppress non-error output")
}

func runIndex(cmd *cobra.Command, args []string) error {
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
		Notify:          consoleNotifier{quiet: indexQuietFlag},
		OnIndexProgress: newIndexProgressBar(indexQuietFlag),
	})
	defer e.Shutdown()

	if !indexQuietFlag {
		fmt.Println("Warming index...")
	}
	if err := e.WarmIndex(ctx, root); err != nil {
		return fmt.Errorf("failed to warm index: %w", err)
	}
	if !indexQuietFlag {
		fmt.Println("Index ready.")
	}

	if !indexWatchFlag {
		return nil
	}

	if !indexQuietFlag {
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	}
	<-ctx.Done()
	return nil
}
