package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// outcomeError labels runs that ended with an error instead of a termination reason.
const outcomeError = "error"

// Metrics records run and node activity as Prometheus collectors.
type Metrics struct {
	Runs         *prometheus.CounterVec
	Nodes        *prometheus.CounterVec
	Steps        *prometheus.HistogramVec
	StepDuration *prometheus.HistogramVec

	inflight sync.Map // run_id/step -> time.Time
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowrun_runs_total",
				Help: "Total number of finished runs by outcome",
			},
			[]string{"graph_id", "terminated_by"},
		),
		Nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowrun_node_executions_total",
				Help: "Total number of node executions",
			},
			[]string{"graph_id", "node_id"},
		),
		Steps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowrun_run_steps",
				Help:    "Number of steps executed per successful run",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"graph_id"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "flowrun_step_duration_seconds",
				Help: "Duration of step handler executions",
			},
			[]string{"step_type"},
		),
	}

	for _, c := range []prometheus.Collector{m.Runs, m.Nodes, m.Steps, m.StepDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.Nodes.WithLabelValues(e.GraphID, e.NodeID).Inc()
			m.inflight.Store(stepKey(e), e.Timestamp)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			if v, ok := m.inflight.LoadAndDelete(stepKey(e)); ok {
				m.StepDuration.WithLabelValues(e.StepType).Observe(e.Timestamp.Sub(v.(time.Time)).Seconds())
			}
		},
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				m.Runs.WithLabelValues(e.GraphID, outcomeError).Inc()
				return
			}
			m.Runs.WithLabelValues(e.GraphID, string(e.TerminatedBy)).Inc()
			m.Steps.WithLabelValues(e.GraphID).Observe(float64(e.Steps))
		},
	}
}

func stepKey(e *domain.NodeEvent) string {
	return fmt.Sprintf("%s/%d", e.RunID, e.Step)
}
