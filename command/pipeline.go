package command

import (
	"context"
	"time"

	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics are the prometheus collectors of command execution.
type Metrics struct {
	commands *prometheus.CounterVec
	seconds  *prometheus.HistogramVec
	rows     prometheus.Counter
}

// NewMetrics registers the command collectors with registerer.  A nil
// registerer gets a private registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &Metrics{
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iql_commands_total",
				Help: "Number of commands run.",
			},
			[]string{"kind"},
		),
		seconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iql_command_seconds",
				Help:    "Time spent running a command.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"kind"},
		),
		rows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "iql_rows_emitted_total",
				Help: "Number of rows emitted by commands.",
			},
		),
	}
}

// Pipeline runs command lists.
type Pipeline struct {
	logger  *zap.Logger
	metrics *Metrics
}

func NewPipeline(logger *zap.Logger, metrics *Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{logger: logger, metrics: metrics}
}

// Run executes cmds in order against sess starting from state, writing
// rows to sink, and returns the final state.  It stops at the first
// failing command and returns the state that command was given.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session, state session.State, cmds []Command, sink rowio.Writer) (session.State, error) {
	if sink == nil {
		sink = discard{}
	}
	counter := rowio.NewCounter(sink)
	e := NewExecutor(sess, counter, p.logger)
	for k, c := range cmds {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		kind := Kind(c)
		before := counter.Count()
		start := time.Now()
		next, err := e.Run(ctx, state, c)
		elapsed := time.Since(start)
		rows := counter.Count() - before
		p.metrics.commands.WithLabelValues(kind).Inc()
		p.metrics.seconds.WithLabelValues(kind).Observe(elapsed.Seconds())
		p.metrics.rows.Add(float64(rows))
		if err != nil {
			p.logger.Debug("Command failed",
				zap.Int("index", k),
				zap.String("kind", kind),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return state, err
		}
		p.logger.Debug("Command done",
			zap.Int("index", k),
			zap.String("kind", kind),
			zap.Duration("elapsed", elapsed),
			zap.Int("groups_before", state.NumGroups()),
			zap.Int("groups_after", next.NumGroups()),
			zap.Int("depth", next.Depth()),
			zap.Int64("rows", rows),
		)
		state = next
	}
	return state, nil
}
