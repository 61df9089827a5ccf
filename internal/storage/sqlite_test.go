package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/flappygym/internal/rollout"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveScore("screen", 7); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	store.Close()

	// Migrations must be idempotent
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	high, err := store.HighScore("screen")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 7 {
		t.Errorf("Expected high score 7 after reopen, got %d", high)
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	for _, score := range []int{10, 5, 20} {
		if _, err := store.SaveScore("screen", score); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}

	// Different environment
	if _, err := store.SaveScore("simple", 50); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("screen", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}

	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}

	// Should be sorted descending
	if scores[0].Score != 20 || scores[1].Score != 10 || scores[2].Score != 5 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
	if scores[0].EnvID != "screen" {
		t.Errorf("Expected env screen, got %q", scores[0].EnvID)
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	simpleScores, err := store.TopScores("simple", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(simpleScores) != 1 {
		t.Errorf("Expected 1 simple score, got %d", len(simpleScores))
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		store.SaveScore("screen", (i+1)*10)
	}

	scores, err := store.TopScores("screen", 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}

	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores with limit, got %d", len(scores))
	}

	if scores[0].Score != 50 || scores[1].Score != 40 || scores[2].Score != 30 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
}

func TestStoreHighScore(t *testing.T) {
	store := openTestStore(t)

	// No scores yet
	high, err := store.HighScore("screen")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty env, got %d", high)
	}

	store.SaveScore("screen", 3)
	store.SaveScore("screen", 9)
	store.SaveScore("screen", 4)

	high, err = store.HighScore("screen")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 9 {
		t.Errorf("Expected high score of 9, got %d", high)
	}
}

func TestStoreClearScores(t *testing.T) {
	store := openTestStore(t)

	store.SaveScore("screen", 1)
	store.SaveScore("screen", 2)
	store.SaveScore("simple", 3)

	if err := store.ClearScores("screen"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}

	screenScores, _ := store.TopScores("screen", 10)
	if len(screenScores) != 0 {
		t.Errorf("Expected 0 screen scores after clear, got %d", len(screenScores))
	}

	simpleScores, _ := store.TopScores("simple", 10)
	if len(simpleScores) != 1 {
		t.Errorf("Simple scores should not be affected by clearing screen")
	}
}

func TestStoreGameStats(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.GetGameStats("screen")
	if err != nil {
		t.Fatalf("GetGameStats() failed: %v", err)
	}
	if stats.GamesCount != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	store.SaveScore("screen", 2)
	store.SaveScore("screen", 4)
	store.SaveScore("screen", 9)

	stats, err = store.GetGameStats("screen")
	if err != nil {
		t.Fatalf("GetGameStats() failed: %v", err)
	}
	if stats.GamesCount != 3 {
		t.Errorf("GamesCount = %d, want 3", stats.GamesCount)
	}
	if stats.HighScore != 9 {
		t.Errorf("HighScore = %d, want 9", stats.HighScore)
	}
	if stats.AvgScore != 5 {
		t.Errorf("AvgScore = %v, want 5", stats.AvgScore)
	}
	if stats.TotalScore != 15 {
		t.Errorf("TotalScore = %d, want 15", stats.TotalScore)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed should be set")
	}
}

func TestStoreEpisodes(t *testing.T) {
	store := openTestStore(t)

	records := []EpisodeRecord{
		{EnvID: "simple", Policy: "seeker", Seed: 1, Score: 3, Steps: 40, Duration: 12 * time.Millisecond},
		{EnvID: "simple", Policy: "seeker", Seed: 2, Score: 7, Steps: 90},
		{EnvID: "simple", Policy: "random", Seed: 3, Score: 7, Steps: 80, Truncated: true},
		{EnvID: "screen", Policy: "idle", Seed: 4, Score: 0, Steps: 4},
	}
	for _, rec := range records {
		if _, err := store.SaveEpisode(rec); err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
	}

	best, err := store.BestEpisodes("simple", 10)
	if err != nil {
		t.Fatalf("BestEpisodes() failed: %v", err)
	}
	if len(best) != 3 {
		t.Fatalf("Expected 3 simple episodes, got %d", len(best))
	}

	// Equal scores are ranked by fewer steps
	if best[0].Seed != 3 || best[1].Seed != 2 || best[2].Seed != 1 {
		t.Errorf("Unexpected best order: seeds %d, %d, %d", best[0].Seed, best[1].Seed, best[2].Seed)
	}
	if !best[0].Truncated || best[1].Truncated {
		t.Error("Truncated flag not round-tripped")
	}
	if best[2].Duration != 12*time.Millisecond {
		t.Errorf("Duration = %v, want 12ms", best[2].Duration)
	}
	for _, rec := range best {
		if _, err := uuid.Parse(rec.EpisodeID); err != nil {
			t.Errorf("EpisodeID %q is not a UUID: %v", rec.EpisodeID, err)
		}
	}

	recent, err := store.RecentEpisodes("simple", 2)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent episodes, got %d", len(recent))
	}
	// Same-second inserts fall back to insertion order
	if recent[0].Seed != 3 || recent[1].Seed != 2 {
		t.Errorf("Unexpected recent order: seeds %d, %d", recent[0].Seed, recent[1].Seed)
	}
}

func TestStoreDuplicateEpisodeID(t *testing.T) {
	store := openTestStore(t)
	id := uuid.NewString()

	if _, err := store.SaveEpisode(EpisodeRecord{EpisodeID: id, EnvID: "screen", Policy: "idle"}); err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}
	if _, err := store.SaveEpisode(EpisodeRecord{EpisodeID: id, EnvID: "screen", Policy: "idle"}); err == nil {
		t.Error("Expected error for duplicate episode ID")
	}
}

func TestStoreRecordEpisodeConcurrent(t *testing.T) {
	store := openTestStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.RecordEpisode(rollout.EpisodeResult{
				ID:     uuid.NewString(),
				EnvID:  "screen",
				Policy: fmt.Sprintf("p%d", i%2),
				Seed:   int64(i),
				Score:  i,
				Steps:  i * 10,
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecordEpisode() failed: %v", err)
		}
	}

	best, err := store.BestEpisodes("screen", 100)
	if err != nil {
		t.Fatalf("BestEpisodes() failed: %v", err)
	}
	if len(best) != 16 {
		t.Errorf("Expected 16 episodes, got %d", len(best))
	}
	if best[0].Score != 15 {
		t.Errorf("Expected best score 15, got %d", best[0].Score)
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
