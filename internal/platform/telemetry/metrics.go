// Package telemetry records HTTP and recommendation metrics and serves them
// in the Prometheus text exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// histogram keeps non-cumulative bucket counts; export makes them cumulative.
type histogram struct {
	mu      sync.Mutex
	buckets []int64
	count   int64
	sum     uint64 // math.Float64bits
}

func newHistogram() *histogram {
	return &histogram{buckets: make([]int64, len(durationBuckets))}
}

func (h *histogram) observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		if atomic.CompareAndSwapUint64(&h.sum, old, math.Float64bits(math.Float64frombits(old)+v)) {
			break
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range durationBuckets {
		if v <= b {
			h.buckets[i]++
			return
		}
	}
}

func (h *histogram) cumulative() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.buckets))
	var running int64
	for i, c := range h.buckets {
		running += c
		out[i] = running
	}
	return out
}

// Gauge is sampled at scrape time.
type Gauge struct {
	Name  string
	Help  string
	Value func() float64
}

// Metrics is safe for concurrent use.
type Metrics struct {
	mu       sync.RWMutex
	requests map[string]*histogram // method|route|status

	active int64

	recommendations      int64
	recommendationErrors int64
	categoriesMatched    int64

	gauges []Gauge
}

func NewMetrics(gauges ...Gauge) *Metrics {
	return &Metrics{requests: make(map[string]*histogram), gauges: gauges}
}

func labelsKey(method, route, status string) string {
	return method + "|" + route + "|" + status
}

func (m *Metrics) requestHistogram(key string) *histogram {
	m.mu.RLock()
	h, ok := m.requests[key]
	m.mu.RUnlock()
	if ok {
		return h
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.requests[key]; !ok {
		h = newHistogram()
		m.requests[key] = h
	}
	return h
}

// Middleware records one duration observation per request, labelled by the
// matched route pattern rather than the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.active, 1)
			start := time.Now()

			err := next(c)

			atomic.AddInt64(&m.active, -1)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requestHistogram(labelsKey(c.Request().Method, route, strconv.Itoa(status))).
				observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveRecommendation counts one evaluation and the categories it matched.
func (m *Metrics) ObserveRecommendation(matched int, err error) {
	atomic.AddInt64(&m.recommendations, 1)
	if err != nil {
		atomic.AddInt64(&m.recommendationErrors, 1)
		return
	}
	atomic.AddInt64(&m.categoriesMatched, int64(matched))
}

// Handler serves GET /metrics.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, m.render())
	}
}

func (m *Metrics) render() string {
	var b strings.Builder

	b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
	b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
	m.mu.RLock()
	keys := make([]string, 0, len(m.requests))
	for k := range m.requests {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		parts := strings.SplitN(k, "|", 3)
		labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
		writeHistogram(&b, "http_server_request_duration_seconds", labels, m.requestHistogram(k))
	}
	b.WriteByte('\n')

	writeValue(&b, "http_server_active_requests", "Number of in-flight HTTP requests.", "gauge",
		float64(atomic.LoadInt64(&m.active)))
	writeValue(&b, "recommendation_evaluations_total", "Recommendation evaluations run.", "counter",
		float64(atomic.LoadInt64(&m.recommendations)))
	writeValue(&b, "recommendation_errors_total", "Recommendation evaluations that failed.", "counter",
		float64(atomic.LoadInt64(&m.recommendationErrors)))
	writeValue(&b, "recommendation_categories_matched_total", "Regimen categories returned by evaluations.", "counter",
		float64(atomic.LoadInt64(&m.categoriesMatched)))
	for _, g := range m.gauges {
		writeValue(&b, g.Name, g.Help, "gauge", g.Value())
	}
	return b.String()
}

func writeValue(b *strings.Builder, name, help, typ string, v float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
	fmt.Fprintf(b, "%s %g\n\n", name, v)
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulative()
	total := atomic.LoadInt64(&h.count)
	for i, le := range durationBuckets {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, le, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, math.Float64frombits(atomic.LoadUint64(&h.sum)))
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}
