// Package rollout plays batches of episodes against the registered
// environments with scripted policies. Episodes run concurrently, each on its
// own environment instance, and every episode is seeded from its index so a
// batch replays identically whatever the worker count.
package rollout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/flappygym/internal/core"
	"github.com/vovakirdan/flappygym/internal/registry"
)

// DefaultMaxSteps caps episodes when the runtime config sets no limit, so a
// policy that never crashes still finishes.
const DefaultMaxSteps = 10_000

// Options configures a batch of episodes.
type Options struct {
	EnvID    string
	Policy   string
	Episodes int
	Workers  int   // 0 = GOMAXPROCS
	BaseSeed int64 // Episode i uses BaseSeed+i, whatever its sign
	Runtime  core.RuntimeConfig
}

// EpisodeResult summarizes one finished episode.
type EpisodeResult struct {
	ID        string
	Episode   int
	EnvID     string
	Policy    string
	Seed      int64
	Score     int
	Steps     int
	Reward    float64
	Truncated bool
	Duration  time.Duration
}

// Outcome is "crashed" or "truncated".
func (r EpisodeResult) Outcome() string {
	if r.Truncated {
		return "truncated"
	}
	return "crashed"
}

// Recorder persists finished episodes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordEpisode(r EpisodeResult) error
}

// Runner executes batches of episodes.
type Runner struct {
	opts     Options
	logger   *log.Logger
	metrics  *Metrics
	recorder Recorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records every episode in m.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithRecorder persists every episode through rec.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// NewRunner validates opts and creates a runner.
func NewRunner(opts Options, options ...RunnerOption) (*Runner, error) {
	if !registry.Exists(opts.EnvID) {
		return nil, fmt.Errorf("rollout: unknown environment %q", opts.EnvID)
	}
	if _, err := NewPolicy(opts.Policy, 0); err != nil {
		return nil, err
	}
	if opts.Episodes <= 0 {
		return nil, fmt.Errorf("rollout: episodes must be positive, got %d", opts.Episodes)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Runtime.MaxSteps <= 0 {
		opts.Runtime.MaxSteps = DefaultMaxSteps
	}

	r := &Runner{
		opts:   opts,
		logger: log.New(io.Discard),
	}
	for _, o := range options {
		o(r)
	}
	return r, nil
}

// Options returns the resolved options.
func (r *Runner) Options() Options {
	return r.opts
}

// Run plays every episode and returns the results ordered by episode index.
// The first error cancels the remaining episodes.
func (r *Runner) Run(ctx context.Context) ([]EpisodeResult, error) {
	r.logger.Info("rollout started",
		"env", r.opts.EnvID,
		"policy", r.opts.Policy,
		"episodes", r.opts.Episodes,
		"workers", r.opts.Workers,
		"base_seed", r.opts.BaseSeed,
	)
	start := time.Now()

	results := make([]EpisodeResult, r.opts.Episodes)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := 0; i < r.opts.Episodes; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.runEpisode(gctx, i)
			if err != nil {
				return fmt.Errorf("rollout: episode %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := Summarize(results)
	r.logger.Info("rollout finished",
		"episodes", sum.Episodes,
		"mean_score", fmt.Sprintf("%.2f", sum.MeanScore),
		"max_score", sum.MaxScore,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return results, nil
}

func (r *Runner) runEpisode(ctx context.Context, i int) (EpisodeResult, error) {
	seed := r.opts.BaseSeed + int64(i)

	e, err := registry.Create(r.opts.EnvID)
	if err != nil {
		return EpisodeResult{}, err
	}
	p, err := NewPolicy(r.opts.Policy, seed)
	if err != nil {
		return EpisodeResult{}, err
	}

	cfg := r.opts.Runtime
	cfg.Seed = seed
	res, err := RunEpisode(ctx, e, p, cfg)
	if err != nil {
		return EpisodeResult{}, err
	}
	res.Episode = i

	r.logger.Debug("episode finished",
		"episode", i,
		"seed", seed,
		"score", res.Score,
		"steps", res.Steps,
		"outcome", res.Outcome(),
	)
	r.metrics.ObserveEpisode(res)
	if r.recorder != nil {
		if err := r.recorder.RecordEpisode(res); err != nil {
			return EpisodeResult{}, err
		}
	}
	return res, nil
}

// RunEpisode plays a single episode of e with p until it crashes, is
// truncated, or ctx is cancelled.
func RunEpisode(ctx context.Context, e registry.Env, p Policy, cfg core.RuntimeConfig) (EpisodeResult, error) {
	start := time.Now()
	obs, _, err := e.Reset(cfg)
	if err != nil {
		return EpisodeResult{}, err
	}

	res := EpisodeResult{
		ID:     uuid.NewString(),
		EnvID:  e.ID(),
		Policy: p.Name(),
		Seed:   cfg.Seed,
	}
	for {
		if err := ctx.Err(); err != nil {
			return EpisodeResult{}, err
		}
		step, err := e.Step(p.Act(obs))
		if err != nil {
			return EpisodeResult{}, err
		}
		res.Reward += step.Reward
		res.Score = step.Info.Score
		res.Steps = step.Info.Steps
		obs = step.Observation

		if step.Done || step.Truncated {
			res.Truncated = step.Truncated
			break
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Summary aggregates a batch of episodes.
type Summary struct {
	Episodes  int
	Truncated int
	MeanScore float64
	MaxScore  int
	MeanSteps float64
}

// Summarize aggregates results.
func Summarize(results []EpisodeResult) Summary {
	s := Summary{Episodes: len(results)}
	if len(results) == 0 {
		return s
	}
	var scores, steps int
	for _, r := range results {
		scores += r.Score
		steps += r.Steps
		s.MaxScore = core.Max(s.MaxScore, r.Score)
		if r.Truncated {
			s.Truncated++
		}
	}
	s.MeanScore = float64(scores) / float64(len(results))
	s.MeanSteps = float64(steps) / float64(len(results))
	return s
}

// IsCanceled reports whether err stems from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
