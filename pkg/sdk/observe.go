package geodex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Operation outcomes, used as the "outcome" metric label and log attribute.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeBudget   = "budget"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// outcome classifies err so dashboards can tell caller mistakes from
// backend failures.
func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrUnknownResourceType),
		errors.Is(err, domain.ErrSemanticSearchNotSupported),
		errors.Is(err, domain.ErrEmbedderNotConfigured):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return OutcomeBudget
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomeError
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geodex",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "Embedded catalog operations by name and outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geodex",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "Embedded catalog operation latency.",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2.5, 10, 60},
	}, []string{"operation"})

	var err error
	m := &sdkMetrics{}
	if m.operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. Clients sharing a registry share collectors: an
// already registered collector of the same type is returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("geodex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("geodex: metric already registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and counts client operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	switch out {
	case OutcomeOK:
		o.logger.Debug("geodex operation", "op", op, "duration", dur)
	case OutcomeError:
		o.logger.Warn("geodex operation failed", "op", op, "duration", dur, "outcome", out, "error", err)
	default:
		o.logger.Info("geodex operation rejected", "op", op, "duration", dur, "outcome", out, "error", err)
	}
}
