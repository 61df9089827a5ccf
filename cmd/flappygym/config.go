package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/flappygym/internal/config"
)

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration flappygym would run with, after applying the
config file search order and --difficulty.

Search order:
  1. --config <path>
  2. ~/.flappygym/config.yaml
  3. ./configs/flappy.yaml
  4. built-in defaults

Examples:
  flappygym config
  flappygym config --difficulty hard
  flappygym config --defaults > ~/.flappygym/config.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the built-in defaults file instead")
}

func runConfig(_ *cobra.Command, _ []string) {
	if flagDefaults {
		//nolint:errcheck // Nothing to do if stdout is gone
		os.Stdout.Write(config.DefaultYAML())
		return
	}

	cfg := loadConfig()
	out, err := yaml.Marshal(cfg)
	if err != nil {
		fatalf("encoding config: %v", err)
	}
	fmt.Print(string(out))
}
