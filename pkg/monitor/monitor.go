// Package monitor runs the periodic driver loop: each cycle it re-reads
// aggregate state, derives burn rate and depletion forecasts, evaluates
// alerts, and emits a status snapshot. Errors inside an iteration are
// logged and the loop continues; writes are transaction-scoped in the
// store, so an interrupt between iterations never leaves partial state.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/burndown-ai/burndown/pkg/aggregate"
	"github.com/burndown-ai/burndown/pkg/alerts"
	"github.com/burndown-ai/burndown/pkg/burnrate"
	"github.com/burndown-ai/burndown/pkg/forecast"
	"github.com/burndown-ai/burndown/pkg/metrics"
	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/session"
	"github.com/burndown-ai/burndown/pkg/store"
	"github.com/burndown-ai/burndown/pkg/usageapi"
)

// fetchEvery is how often the upstream usage endpoint is polled; it is
// much slower than the loop cadence.
const fetchEvery = time.Minute

// Options configures a Monitor. Values are passed in explicitly; the
// monitor holds no ambient global state.
type Options struct {
	CredentialID  string
	TokenLimit    int64
	Timezone      string
	Interval      time.Duration
	RollupSpec    string
	MetricsListen string
}

// Monitor is the long-running driver process.
type Monitor struct {
	store     *store.Store
	sessions  *session.Manager
	engine    *alerts.Engine
	agg       *aggregate.Aggregator
	predictor *forecast.Predictor
	remote    *usageapi.Client
	metrics   *metrics.Metrics
	opts      Options
	log       *zap.Logger
	out       io.Writer
	now       func() time.Time

	lastFetch   time.Time
	lastEventID int64
	remoteCost  float64
}

// New wires a Monitor. remote may be nil, in which case the upstream
// usage fetch is skipped entirely.
func New(st *store.Store, remote *usageapi.Client, opts Options, log *zap.Logger, out io.Writer) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	return &Monitor{
		store:     st,
		sessions:  session.NewManager(st),
		engine:    alerts.NewEngine(st, log),
		agg:       aggregate.New(st),
		predictor: forecast.NewPredictor(log),
		remote:    remote,
		metrics:   metrics.New(),
		opts:      opts,
		log:       log,
		out:       out,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the loop until ctx is cancelled, then returns nil. The
// rollup runs on its own cron schedule; the optional metrics endpoint
// serves until shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	sched := cron.New()
	if m.opts.RollupSpec != "" {
		if _, err := sched.AddFunc(m.opts.RollupSpec, func() {
			rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := m.agg.RollupDay(rctx, m.now(), m.opts.CredentialID); err != nil {
				m.log.Error("daily rollup failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule rollup: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	var metricsSrv *http.Server
	if m.opts.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.metrics.Handler())
		metricsSrv = &http.Server{Addr: m.opts.MetricsListen, Handler: mux}
		go func() {
			m.log.Info("metrics listening", zap.String("addr", m.opts.MetricsListen))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				m.log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutCtx)
		}()
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		if err := m.iterate(ctx); err != nil {
			m.log.Error("monitor iteration failed", zap.Error(err))
		}
		m.metrics.LoopIterations.Inc()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// iterate runs one monitoring cycle.
func (m *Monitor) iterate(ctx context.Context) error {
	now := m.now()

	sess, err := m.sessions.Active(ctx, m.opts.CredentialID)
	if errors.Is(err, store.ErrNotFound) {
		id, openErr := m.sessions.Open(ctx, m.opts.CredentialID, "")
		if openErr != nil {
			return openErr
		}
		m.log.Info("opened new session", zap.String("session_id", id))
		sess, err = m.sessions.Active(ctx, m.opts.CredentialID)
	}
	if err != nil {
		return err
	}

	events, err := m.store.EventsSince(ctx, now.Add(-time.Hour), m.opts.CredentialID)
	if err != nil {
		return err
	}
	maxID := m.lastEventID
	for _, ev := range events {
		if ev.ID > m.lastEventID {
			m.metrics.EventsRecorded.Inc()
		}
		if ev.ID > maxID {
			maxID = ev.ID
		}
	}
	m.lastEventID = maxID

	snap := m.snapshot(sess, events, now)

	fired, err := m.engine.Evaluate(ctx, m.opts.CredentialID, snap.Usage)
	if err != nil {
		m.log.Warn("alert evaluation failed", zap.Error(err))
	}
	for _, a := range fired {
		m.metrics.AlertsFired.WithLabelValues(string(a.Kind)).Inc()
	}

	m.fetchRemote(ctx, now)
	m.publishMetrics(snap)

	recent, err := m.engine.Recent(ctx, 24*time.Hour, m.opts.CredentialID)
	if err != nil {
		m.log.Warn("reading recent alerts failed", zap.Error(err))
	}
	m.render(snap, recent)
	return nil
}

// snapshot holds the derived metrics for one cycle.
type snapshot struct {
	Usage         models.CurrentUsage
	Session       *models.Session
	TokensLeft    int64
	ResetTime     time.Time
	PredictedEnd  time.Time
	DepletesFirst bool
	Now           time.Time
}

func (m *Monitor) snapshot(sess *models.Session, events []models.UsageEvent, now time.Time) snapshot {
	rate := burnrate.InstantaneousRate(events, now)
	usage := models.CurrentUsage{
		TokensUsed: sess.TotalTokens,
		TokenLimit: m.opts.TokenLimit,
		TotalCost:  sess.TotalCost,
		BurnRate:   rate,
	}

	left := m.opts.TokenLimit - sess.TotalTokens
	reset := m.predictor.NextReset(now, m.opts.Timezone)
	predicted := m.predictor.PredictedExhaustion(now, left, rate, reset)

	return snapshot{
		Usage:         usage,
		Session:       sess,
		TokensLeft:    left,
		ResetTime:     reset,
		PredictedEnd:  predicted,
		DepletesFirst: forecast.DepletesBeforeReset(predicted, reset) && rate > 0,
		Now:           now,
	}
}

// fetchRemote polls the upstream usage endpoint on a slow cadence. The
// fetch is a soft signal: failures are counted and logged, never fatal.
func (m *Monitor) fetchRemote(ctx context.Context, now time.Time) {
	if m.remote == nil || now.Sub(m.lastFetch) < fetchEvery {
		return
	}
	m.lastFetch = now

	remote, err := m.remote.CurrentUsage(ctx)
	if err != nil {
		m.metrics.FetchFailures.Inc()
		m.log.Warn("upstream usage unavailable", zap.Error(err))
		return
	}
	// total_usage is reported in cents.
	m.remoteCost = remote.TotalUsage / 100
}

func (m *Monitor) publishMetrics(snap snapshot) {
	m.metrics.TokensUsed.Set(float64(snap.Usage.TokensUsed))
	m.metrics.TokensRemaining.Set(float64(snap.TokensLeft))
	m.metrics.BurnRate.Set(snap.Usage.BurnRate)
	m.metrics.TotalCost.Set(snap.Usage.TotalCost)
}
