package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON response for the admin metrics endpoint.
type Summary struct {
	API       httpSummary        `json:"api"`
	Pages     httpSummary        `json:"pages"`
	Auth      authInfo           `json:"auth"`
	Logins    map[string]float64 `json:"logins"`
	RateLimit rateLimitInfo      `json:"rateLimit"`
	Gate      map[string]float64 `json:"gate"`
	Provision map[string]float64 `json:"provision"`
	Store     storeInfo          `json:"store"`
	Audit     auditInfo          `json:"audit"`
	DB        dbInfo             `json:"db"`
	Server    serverInfo         `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type rateLimitInfo struct {
	Rejections float64 `json:"rejections"`
}

type authInfo struct {
	Failures  float64 `json:"failures"`
	Successes float64 `json:"successes"`
}

type storeInfo struct {
	Operations float64 `json:"operations"`
	Errors     float64 `json:"errors"`
	P95Latency float64 `json:"p95Latency"`
}

type auditInfo struct {
	BufferSize   float64 `json:"bufferSize"`
	TotalFlushes float64 `json:"totalFlushes"`
	FlushErrors  float64 `json:"flushErrors"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

// Handler returns an http.HandlerFunc that serves live metrics in JSON format.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (*Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	start := gaugeValue(fam["accolade_server_start_time_seconds"])
	return &Summary{
		API:   httpByKind(fam, "api"),
		Pages: httpByKind(fam, "page"),
		Auth: authInfo{
			Failures:  sumCounter(fam["accolade_auth_failures_total"]),
			Successes: sumCounter(fam["accolade_auth_successes_total"]),
		},
		Logins: countersByLabel(fam["accolade_login_attempts_total"], "result"),
		RateLimit: rateLimitInfo{
			Rejections: sumCounter(fam["accolade_ratelimit_rejections_total"]),
		},
		Gate:      countersByLabel(fam["accolade_gate_decisions_total"], "outcome"),
		Provision: countersByLabel(fam["accolade_provision_total"], "result"),
		Store: storeInfo{
			Operations: sumCounter(fam["accolade_store_operations_total"]),
			Errors:     sumCounterWithLabel(fam["accolade_store_operations_total"], "status", "error"),
			P95Latency: histogramPercentile(fam["accolade_store_operation_duration_seconds"], 0.95, nil),
		},
		Audit: auditInfo{
			BufferSize:   gaugeValue(fam["accolade_audit_buffer_size"]),
			TotalFlushes: sumCounter(fam["accolade_audit_flushes_total"]),
			FlushErrors:  sumCounterWithLabel(fam["accolade_audit_flushes_total"], "status", "error"),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["accolade_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["accolade_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["accolade_db_pool_acquired_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

func httpByKind(fam map[string]*dto.MetricFamily, kind string) httpSummary {
	match := func(m *dto.Metric) bool { return hasLabel(m, "kind", kind) }
	dur := fam["accolade_http_request_duration_seconds"]
	return httpSummary{
		TotalRequests: sumCounterWithLabel(fam["accolade_http_requests_total"], "kind", kind),
		ErrorRate:     errorRate(fam["accolade_http_requests_total"], match),
		P50Latency:    histogramPercentile(dur, 0.50, match),
		P95Latency:    histogramPercentile(dur, 0.95, match),
		P99Latency:    histogramPercentile(dur, 0.99, match),
	}
}

// --- Prometheus metric helpers ---

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	if ms[0].GetGauge() != nil {
		return ms[0].GetGauge().GetValue()
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func sumCounterWithLabel(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if hasLabel(m, labelName, labelValue) && m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// countersByLabel sums a counter family grouped by one label.
func countersByLabel(f *dto.MetricFamily, labelName string) map[string]float64 {
	out := map[string]float64{}
	if f == nil {
		return out
	}
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		for _, lp := range m.GetLabel() {
			if lp.GetName() == labelName {
				out[lp.GetValue()] += m.GetCounter().GetValue()
			}
		}
	}
	return out
}

// errorRate is the share of matching requests with a 4xx or 5xx status.
func errorRate(f *dto.MetricFamily, match func(*dto.Metric) bool) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if !match(m) || m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				code := lp.GetValue()
				if len(code) > 0 && code[0] >= '4' {
					errors += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

// histogramPercentile computes a percentile from the aggregated buckets of
// the matching histograms (all of them when match is nil) using linear
// interpolation.
func histogramPercentile(f *dto.MetricFamily, q float64, match func(*dto.Metric) bool) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		if match != nil && !match(m) {
			continue
		}
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)

	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			bucketCount := b.cumulativeCount - prevCount
			if bucketCount == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(bucketCount)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	// Past every finite bucket: report the last finite bound.
	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upperBound, 1) {
			return buckets[i].upperBound
		}
	}
	return 0
}
