package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappygym/internal/env"
	"github.com/vovakirdan/flappygym/internal/platform/tui"
	"github.com/vovakirdan/flappygym/internal/registry"
	"github.com/vovakirdan/flappygym/internal/storage"
)

var flagTickRate int

var playCmd = &cobra.Command{
	Use:   "play <env>",
	Short: "Play an environment",
	Long: `Play the specified environment by hand.

Controls:
  Space/Up/W - Flap
  P/Esc      - Pause
  R          - Restart (after game over)
  Ctrl+S     - Save a text screenshot
  Q/Ctrl+C   - Quit

Difficulty options:
  easy   - 6-row gaps
  normal - 4-row gaps
  hard   - 2-row gaps

Examples:
  flappygym play screen
  flappygym play simple --difficulty hard
  flappygym play screen --tick-rate 8 --seed 42
  flappygym play screen --config ./my-flappy.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagTickRate, "tick-rate", 0, "Frames per second (default from config)")
}

func runPlay(cmd *cobra.Command, args []string) {
	envID := args[0]
	requireEnv(envID)

	cfg := loadConfig()
	rt := cfg.Runtime(resolveSeed(cmd))
	if flagTickRate > 0 {
		rt.TickRate = flagTickRate
	}

	// Warn early if the frame will not fit
	w, h := env.FrameSize(rt.ScreenW, rt.ScreenH, 2)
	if tw, th, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil && (tw < w || th < h+2) {
		fmt.Fprintf(os.Stderr, "Warning: terminal is %dx%d, the field needs %dx%d\n", tw, th, w, h+2)
	}

	e, err := registry.Create(envID)
	if err != nil {
		fatalf("creating environment: %v", err)
	}

	// Open score storage
	store, err := storage.Open(dbPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		// Continue without storage - the game still works
		store = nil
	}

	runErr := tui.Run(e, store, rt)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fatalf("running game: %v", runErr)
	}
}
