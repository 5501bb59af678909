package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Outcome labels for best-move requests.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeValidation   = "validation"
	OutcomeUpstreamHTTP = "upstream_http"
	OutcomeTransport    = "transport"
	OutcomeSchema       = "schema"
	OutcomeUnknown      = "unknown"
)

// Payment event labels.
const (
	PaymentRequired     = "required"
	PaymentRejected     = "rejected"
	PaymentVerified     = "verified"
	PaymentSettled      = "settled"
	PaymentSettleFailed = "settle_failed"
	PaymentNotSettled   = "not_settled"
)

var (
	bestMoveRequestsTotal atomic.Uint64

	outcomes = newLabeledCounter(OutcomeSuccess, OutcomeFailure, OutcomeValidation,
		OutcomeUpstreamHTTP, OutcomeTransport, OutcomeSchema, OutcomeUnknown)
	payments = newLabeledCounter(PaymentRequired, PaymentRejected, PaymentVerified,
		PaymentSettled, PaymentSettleFailed, PaymentNotSettled)

	upstreamDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncBestMoveRequests increments the request counter.
func IncBestMoveRequests() {
	bestMoveRequestsTotal.Add(1)
}

// IncOutcome increments the counter for a best-move outcome.
func IncOutcome(outcome string) {
	outcomes.Inc(outcome)
}

// IncPayment increments the counter for a payment event.
func IncPayment(event string) {
	payments.Inc(event)
}

// ObserveUpstreamDurationMs records an upstream call duration in milliseconds.
func ObserveUpstreamDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	upstreamDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "best_move_requests_total", "Total best-move requests reaching the handler", bestMoveRequestsTotal.Load())
	writeLabeledCounter(&buf, "best_move_outcomes_total", "Best-move outcomes by kind", "outcome", outcomes.Snapshot())
	writeLabeledCounter(&buf, "payment_events_total", "Payment gate events by kind", "event", payments.Snapshot())
	writeHistogram(&buf, "stockfish_upstream_duration_ms", "Stockfish API call duration in milliseconds", upstreamDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	counts map[string]*atomic.Uint64
}

func newLabeledCounter(labels ...string) *labeledCounter {
	lc := &labeledCounter{counts: make(map[string]*atomic.Uint64, len(labels))}
	for _, l := range labels {
		lc.counts[l] = new(atomic.Uint64)
	}
	return lc
}

// Inc ignores labels that were not declared up front.
func (l *labeledCounter) Inc(label string) {
	if c, ok := l.counts[label]; ok {
		c.Add(1)
	}
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v.Load()
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket whose bound it does not exceed.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
