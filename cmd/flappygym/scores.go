package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappygym/internal/platform/tui"
	"github.com/vovakirdan/flappygym/internal/registry"
	"github.com/vovakirdan/flappygym/internal/storage"
)

var (
	flagInteractive bool
	flagLimit       int
	flagRecent      bool
	flagClear       bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores <env>",
	Short: "Show high scores and best episodes",
	Long: `Display the top player scores and the best rollout episodes for an
environment.

With -i the scores open in an interactive table. Tab switches environment,
v switches between player scores and rollout episodes.

Examples:
  flappygym scores screen
  flappygym scores simple --limit 20
  flappygym scores simple --recent
  flappygym scores screen --clear
  flappygym scores simple -i`,
	Args: cobra.ExactArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Open the interactive scoreboard")
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of entries per table")
	scoresCmd.Flags().BoolVar(&flagRecent, "recent", false, "List the latest rollout episodes instead of the best")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all player scores for the environment")
}

func runScores(cmd *cobra.Command, args []string) {
	envID := args[0]
	requireEnv(envID)

	cfg := loadConfig()

	store, err := storage.Open(dbPath(cfg))
	if err != nil {
		fatalf("opening scores database: %v", err)
	}
	defer store.Close()

	if flagClear {
		if err := store.ClearScores(envID); err != nil {
			fatalf("clearing scores: %v", err)
		}
		fmt.Printf("Cleared player scores for %s.\n", envID)
		return
	}

	if flagInteractive {
		w, h, sizeErr := term.GetSize(int(os.Stdout.Fd()))
		if sizeErr != nil {
			w, h = 80, 24
		}
		if err := tui.RunScoreboard(store, envID, w, h); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}

	e, err := registry.Create(envID)
	if err != nil {
		fatalf("creating environment: %v", err)
	}

	scores, err := store.TopScores(envID, flagLimit)
	if err != nil {
		fatalf("retrieving scores: %v", err)
	}
	var episodes []storage.EpisodeRecord
	if flagRecent {
		episodes, err = store.RecentEpisodes(envID, flagLimit)
	} else {
		episodes, err = store.BestEpisodes(envID, flagLimit)
	}
	if err != nil {
		fatalf("retrieving episodes: %v", err)
	}

	fmt.Printf("High Scores - %s\n", e.Title())
	fmt.Println()
	printPlayerScores(envID, scores)
	fmt.Println()
	printEpisodes(envID, episodes, flagRecent)

	if stats, err := store.GetGameStats(envID); err == nil && stats.GamesCount > 0 {
		fmt.Println()
		fmt.Printf("Best: %d over %d games (avg %.1f)\n", stats.HighScore, stats.GamesCount, stats.AvgScore)
	}
}

func printPlayerScores(envID string, scores []storage.ScoreEntry) {
	fmt.Println("Players")
	if len(scores) == 0 {
		fmt.Printf("  No scores recorded yet. Play 'flappygym play %s' to set the first one!\n", envID)
		return
	}

	fmt.Printf("  %-4s  %-10s  %s\n", "Rank", "Score", "Date")
	fmt.Printf("  %-4s  %-10s  %s\n", "----", "-----", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-10d  %s\n", i+1, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printEpisodes(envID string, episodes []storage.EpisodeRecord, recent bool) {
	if recent {
		fmt.Println("Recent rollout episodes")
	} else {
		fmt.Println("Best rollout episodes")
	}
	if len(episodes) == 0 {
		fmt.Printf("  None saved. Run 'flappygym rollout %s --save' to record some.\n", envID)
		return
	}

	fmt.Printf("  %-4s  %-6s  %-6s  %-8s  %-20s  %s\n", "#", "Score", "Steps", "Policy", "Seed", "Duration")
	fmt.Printf("  %-4s  %-6s  %-6s  %-8s  %-20s  %s\n", "-", "-----", "-----", "------", "----", "--------")
	for i, ep := range episodes {
		steps := fmt.Sprint(ep.Steps)
		if ep.Truncated {
			steps += "+"
		}
		fmt.Printf("  %-4d  %-6d  %-6s  %-8s  %-20d  %s\n",
			i+1, ep.Score, steps, ep.Policy, ep.Seed, ep.Duration.Round(time.Microsecond))
	}
}
