package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// Resource label values for routes that do not name a single kind.
const (
	ResourceAll   = "base"
	ResourceNone  = "none"
	ResourceOther = "other"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geodex",
			Name:      "http_request_duration_seconds",
			Help:      "API latency by route, resource kind and status",
			Buckets:   []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "resource", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "http_requests_total",
			Help:      "API requests by route, resource kind and status",
		},
		[]string{"method", "route", "resource", "status"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geodex",
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpRequestsInFlight)
}

// Middleware records latency and request counts per chi route. Search and
// index routes are additionally labelled with the resource kind they target.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// Route params are only populated once the router has matched.
			rctx := chi.RouteContext(r.Context())
			route, resource := ResourceOther, ResourceNone
			if rctx != nil {
				route = routeLabel(RoutePattern(rctx))
				resource = resourceLabel(rctx)
			}

			labels := []string{r.Method, route, resource, strconv.Itoa(status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// RoutePattern returns the matched chi pattern without a trailing slash,
// so "/api/{resourcetype}/search/" and "/api/{resourcetype}/search" share
// one label whichever form the router reports. It is empty before routing.
func RoutePattern(rctx *chi.Context) string {
	if rctx == nil {
		return ""
	}
	pattern := rctx.RoutePattern()
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	return pattern
}

// routeLabel keeps the label set bounded: unmatched requests share one value.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

// resourceLabel resolves the {resourcetype} or {kind} path parameter to a
// canonical kind. Free-form values collapse to "other".
func resourceLabel(rctx *chi.Context) string {
	raw := rctx.URLParam("resourcetype")
	if raw == "" {
		raw = rctx.URLParam("kind")
	}
	switch raw {
	case "":
		return ResourceNone
	case ResourceAll:
		return ResourceAll
	}
	kind, err := domain.ParseKind(raw)
	if err != nil {
		return ResourceOther
	}
	return string(kind)
}
