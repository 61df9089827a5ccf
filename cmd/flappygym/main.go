// flappygym is a deterministic text Flappy Bird environment for reinforcement
// learning experiments, playable in the terminal.
//
// Usage:
//
//	flappygym config                - Print the effective configuration
//	flappygym list                  - List available environments
//	flappygym play <env>            - Play an environment by hand
//	flappygym rollout <env>         - Run scripted policies over many episodes
//	flappygym scores <env>          - Show scores and best episodes
//	flappygym serve                 - Start SSH server for remote play
//
// Global flags:
//
//	--seed <value>        - Set RNG seed for reproducible episodes
//	--db <path>           - Set database path (default from config)
//	--config <path>       - Use a custom config YAML
//	--difficulty <preset> - easy, normal or hard
//	--log-level <level>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappygym/internal/config"
	_ "github.com/vovakirdan/flappygym/internal/env" // Register environments
	"github.com/vovakirdan/flappygym/internal/registry"
)

var (
	// Global flags
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappygym",
	Short: "Text Flappy Bird environments for the terminal",
	Long: `flappygym is a deterministic, text-rendered Flappy Bird simulator with
two observation encodings for reinforcement learning experiments.

Available commands:
  config   - Print the effective configuration
  list     - Show all registered environments
  play     - Play an environment by hand
  rollout  - Run a scripted policy over many episodes
  scores   - View scores and best episodes
  serve    - Start SSH server for remote play

Examples:
  flappygym list
  flappygym play screen --difficulty easy
  flappygym rollout simple --policy seeker --episodes 500 --save
  flappygym scores simple -i
  flappygym serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (random based on time if not set)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(rolloutCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
}

// fatalf prints an error and exits.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig resolves the config file, applies the difficulty preset and
// validates the result. Errors are fatal.
func loadConfig() config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fatalf("%v", err)
	}
	if err := config.ApplyPreset(&cfg, config.DifficultyPreset(flagDifficulty)); err != nil {
		fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}
	return cfg
}

// resolveSeed returns --seed when it was given, otherwise a seed drawn from
// the clock. Any explicit value, 0 included, is used as is.
func resolveSeed(cmd *cobra.Command) int64 {
	if cmd.Flags().Changed("seed") {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// dbPath returns the --db flag, falling back to the configured path.
func dbPath(cfg config.Config) string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return cfg.Storage.DBPath
}

// newLogger creates a stderr logger at the --log-level level.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// requireEnv exits unless envID is registered.
func requireEnv(envID string) {
	if !registry.Exists(envID) {
		fmt.Fprintf(os.Stderr, "Error: unknown environment %q\n", envID)
		fmt.Fprintln(os.Stderr, "Run 'flappygym list' to see available environments.")
		os.Exit(1)
	}
}
