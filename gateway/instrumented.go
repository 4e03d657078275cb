// ABOUTME: Gateway decorator recording request counts and latencies in Prometheus
// ABOUTME: Wraps any Gateway; metrics register against an injected registerer
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const authTable = "auth"

// Metrics holds the gateway collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the gateway metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ancora_gateway_requests_total",
				Help: "Gateway calls by operation, table and outcome",
			},
			[]string{"op", "table", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ancora_gateway_request_duration_seconds",
				Help:    "Gateway call latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"op", "table"},
		),
	}
}

func (m *Metrics) observe(op, table string, start time.Time, err error) {
	m.duration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(op, table, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// Instrumented wraps a Gateway with metrics.
type Instrumented struct {
	next    Gateway
	metrics *Metrics
}

func NewInstrumented(next Gateway, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (i *Instrumented) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	start := time.Now()
	s, err := i.next.SignInWithPassword(ctx, email, password)
	i.metrics.observe("sign_in", authTable, start, err)
	return s, err
}

func (i *Instrumented) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	start := time.Now()
	r, err := i.next.SignUp(ctx, email, password, metadata)
	i.metrics.observe("sign_up", authTable, start, err)
	return r, err
}

func (i *Instrumented) SignOut(ctx context.Context) error {
	start := time.Now()
	err := i.next.SignOut(ctx)
	i.metrics.observe("sign_out", authTable, start, err)
	return err
}

func (i *Instrumented) GetSession(ctx context.Context) (*Session, error) {
	start := time.Now()
	s, err := i.next.GetSession(ctx)
	i.metrics.observe("get_session", authTable, start, err)
	return s, err
}

func (i *Instrumented) OnAuthStateChange(listener AuthListener) func() {
	return i.next.OnAuthStateChange(listener)
}

func (i *Instrumented) Select(ctx context.Context, q *Query, dest any) error {
	start := time.Now()
	err := i.next.Select(ctx, q, dest)
	i.metrics.observe("select", q.Table(), start, err)
	return err
}

func (i *Instrumented) Insert(ctx context.Context, table string, row any) error {
	start := time.Now()
	err := i.next.Insert(ctx, table, row)
	i.metrics.observe("insert", table, start, err)
	return err
}

func (i *Instrumented) Update(ctx context.Context, table string, id uuid.UUID, patch any) error {
	start := time.Now()
	err := i.next.Update(ctx, table, id, patch)
	i.metrics.observe("update", table, start, err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, table string, id uuid.UUID) error {
	start := time.Now()
	err := i.next.Delete(ctx, table, id)
	i.metrics.observe("delete", table, start, err)
	return err
}
