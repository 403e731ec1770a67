package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codewell/rre/engine"
	"github.com/codewell/rre/internal/config"
)

var (
	queryLimit   int
	queryMetrics bool
	queryQuiet   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a hybrid retrieval query against the repository",
	Long: `query warms the index for the current repository (indexing it from
scratch on first run, or loading the existing snapshot) and returns
the top matching code/doc snippets for the given query text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "k", 5, "maximum number of results to return")
	queryCmd.Flags().BoolVar(&queryMetrics, "metrics", false, "print retrieval metrics alongside results")
	queryCmd.Flags().BoolVarP(&queryQuiet, "quiet", "q", false, "suppress non-error indexing output")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	e := engine.New(cfg, engine.Dependencies{Notify: consoleNotifier{quiet: queryQuiet}})
	defer e.Shutdown()

	if err := e.WarmIndex(ctx, root); err != nil {
		return fmt.Errorf("failed to warm index: %w", err)
	}

	queryText := strings.Join(args, " ")
	resp := e.QueryWithMetrics(ctx, queryText, queryLimit)

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, r := range resp.Results {
		if i > 0 {
			fmt.Println("---")
		}
		fmt.Println(r)
	}

	if queryMetrics {
		fmt.Fprintf(os.Stderr, "\nretrieval: %.1fms embedding: %.1fms results: %d top_score: %.4f hybrid: %v timed_out: %v early_terminated: %v\n",
			resp.Metrics.RetrievalLatencyMs, resp.Metrics.EmbeddingLatencyMs, resp.Metrics.ResultsCount,
			resp.Metrics.TopScore, resp.Metrics.HybridSearchUsed, resp.Metrics.TimedOut, resp.Metrics.EarlyTerminated)
	}

	return nil
}
