package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappygym/internal/registry"
	"github.com/vovakirdan/flappygym/internal/rollout"
	"github.com/vovakirdan/flappygym/internal/storage"
)

var (
	flagPolicy      string
	flagEpisodes    int
	flagWorkers     int
	flagMaxSteps    int
	flagSave        bool
	flagMetricsAddr string
)

var rolloutCmd = &cobra.Command{
	Use:   "rollout <env>",
	Short: "Run a scripted policy over many episodes",
	Long: `Play many episodes of an environment with a built-in policy.

Episode i is seeded with seed+i, so a rollout replays identically for the same
--seed regardless of --workers. Without --seed a base seed is picked from the
clock and printed. Any explicit seed, 0 and negative values included, is used
as given.

Policies:
  idle    - never flap
  flap    - always flap
  random  - flap with probability 0.5
  seeker  - flap while below the centre of the next gap

Examples:
  flappygym rollout simple --policy seeker --episodes 1000
  flappygym rollout screen --policy random --seed 7 --workers 8 --save
  flappygym rollout simple --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	Run:  runRollout,
}

func init() {
	rolloutCmd.Flags().StringVar(&flagPolicy, "policy", "", "Policy name (default from config)")
	rolloutCmd.Flags().IntVar(&flagEpisodes, "episodes", 0, "Number of episodes (default from config)")
	rolloutCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Concurrent episodes (default from config)")
	rolloutCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 0, "Truncate episodes after this many steps")
	rolloutCmd.Flags().BoolVar(&flagSave, "save", false, "Store every episode in the scores database")
	rolloutCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the rollout")
}

func runRollout(cmd *cobra.Command, args []string) {
	envID := args[0]
	requireEnv(envID)

	cfg := loadConfig()
	logger := newLogger("rollout")

	opts := rollout.Options{
		EnvID:    envID,
		Policy:   firstNonEmpty(flagPolicy, cfg.Rollout.Policy),
		Episodes: firstPositive(flagEpisodes, cfg.Rollout.Episodes),
		Workers:  firstPositive(flagWorkers, cfg.Rollout.Workers),
		BaseSeed: resolveSeed(cmd),
		Runtime:  cfg.Runtime(0),
	}
	if flagMaxSteps > 0 {
		opts.Runtime.MaxSteps = flagMaxSteps
	}

	runnerOpts := []rollout.RunnerOption{rollout.WithLogger(logger)}

	if flagSave {
		store, err := storage.Open(dbPath(cfg))
		if err != nil {
			fatalf("%v", err)
		}
		defer store.Close()
		runnerOpts = append(runnerOpts, rollout.WithRecorder(store))
	}

	if flagMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics, err := rollout.NewMetrics(reg)
		if err != nil {
			fatalf("%v", err)
		}
		runnerOpts = append(runnerOpts, rollout.WithMetrics(metrics))

		srv := serveMetrics(flagMetricsAddr, metrics.Handler(), logger.Error)
		defer shutdownMetrics(srv)
		logger.Info("serving metrics", "address", flagMetricsAddr, "path", "/metrics")
	}

	runner, err := rollout.NewRunner(opts, runnerOpts...)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runner.Run(ctx)
	if err != nil {
		if rollout.IsCanceled(err) {
			logger.Warn("rollout interrupted")
			return
		}
		logger.Error("rollout failed", "error", err)
		return
	}

	printSummary(runner.Options(), rollout.Summarize(results))
}

func printSummary(opts rollout.Options, sum rollout.Summary) {
	title := opts.EnvID
	if e, err := registry.Create(opts.EnvID); err == nil {
		title = e.Title()
	}

	fmt.Printf("Rollout - %s, policy %s\n", title, opts.Policy)
	fmt.Println()
	fmt.Printf("  %-11s %d (%d truncated)\n", "Episodes", sum.Episodes, sum.Truncated)
	fmt.Printf("  %-11s %.2f\n", "Mean score", sum.MeanScore)
	fmt.Printf("  %-11s %d\n", "Max score", sum.MaxScore)
	fmt.Printf("  %-11s %.1f\n", "Mean steps", sum.MeanSteps)
	fmt.Printf("  %-11s %d\n", "Base seed", opts.BaseSeed)
}

// serveMetrics exposes handler on addr/metrics in the background.
func serveMetrics(addr string, handler http.Handler, logError func(msg any, keyvals ...any)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logError("metrics server failed", "error", err)
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	//nolint:errcheck // Best-effort shutdown on exit
	srv.Shutdown(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
