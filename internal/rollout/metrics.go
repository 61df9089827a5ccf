package rollout

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors updated by the runner.
type Metrics struct {
	gatherer prometheus.Gatherer

	Episodes *prometheus.CounterVec
	Steps    *prometheus.CounterVec
	Scores   *prometheus.HistogramVec
}

// NewMetrics registers rollout metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	episodes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flappygym_episodes_total",
		Help: "Total number of finished episodes, labeled by environment, policy and outcome.",
	}, []string{"env", "policy", "outcome"}), "flappygym_episodes_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flappygym_steps_total",
		Help: "Total number of simulator steps taken by rollouts.",
	}, []string{"env", "policy"}), "flappygym_steps_total")
	if err != nil {
		return nil, err
	}

	scores, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flappygym_episode_score",
		Help:    "Pipes passed per episode.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250, 1000},
	}, []string{"env", "policy"}), "flappygym_episode_score")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer: gatherer,
		Episodes: episodes,
		Steps:    steps,
		Scores:   scores,
	}, nil
}

// ObserveEpisode records a finished episode. Safe on a nil receiver.
func (m *Metrics) ObserveEpisode(r EpisodeResult) {
	if m == nil {
		return
	}
	m.Episodes.WithLabelValues(r.EnvID, r.Policy, r.Outcome()).Inc()
	m.Steps.WithLabelValues(r.EnvID, r.Policy).Add(float64(r.Steps))
	m.Scores.WithLabelValues(r.EnvID, r.Policy).Observe(float64(r.Score))
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("rollout: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("rollout: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
