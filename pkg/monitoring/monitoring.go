package monitoring

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	pp "net/http/pprof"

	"serp-comparator/pkg/metrics"
)

// Recent keeps the last N request durations for the JSON stats page.
type Recent struct {
	mu        sync.Mutex
	durations []float64 // milliseconds, circular
	idx       int
	count     int64
}

func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = 256
	}
	return &Recent{durations: make([]float64, capacity)}
}

// Observe adds a duration sample in milliseconds.
func (r *Recent) Observe(ms float64) {
	r.mu.Lock()
	r.durations[r.idx] = ms
	r.idx = (r.idx + 1) % len(r.durations)
	r.count++
	r.mu.Unlock()
}

// Snapshot returns the total count plus avg/p50/p95 over the window.
func (r *Recent) Snapshot() (count int64, avg, p50, p95 float64) {
	r.mu.Lock()
	var samples []float64
	if r.count < int64(len(r.durations)) {
		samples = append(samples, r.durations[:r.idx]...)
	} else {
		samples = append(samples, r.durations...)
	}
	count = r.count
	r.mu.Unlock()

	if len(samples) == 0 {
		return count, 0, 0, 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	sort.Float64s(samples)
	return count, sum / float64(len(samples)), samples[(len(samples)*50)/100], samples[(len(samples)*95)/100]
}

// StatusWriter captures the status code written by a handler.
type StatusWriter struct {
	http.ResponseWriter
	status int
}

func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Status() int { return sw.status }

// Middleware measures request duration into the Prometheus histogram and,
// when recent is non-nil, the rolling window.
func Middleware(m *metrics.Metrics, recent *Recent) func(http.Handler) http.Handler {
	if m == nil {
		m = metrics.Default
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := NewStatusWriter(w)
			next.ServeHTTP(sw, r)
			dur := time.Since(start)
			m.HTTPDuration.WithLabelValues(r.Method, strconv.Itoa(sw.Status())).Observe(dur.Seconds())
			if recent != nil {
				recent.Observe(float64(dur) / float64(time.Millisecond))
			}
		})
	}
}

// StatsHandler exposes runtime and recent request stats as JSON.
func StatsHandler(recent *Recent) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		resp := map[string]interface{}{
			"time":             time.Now().Format(time.RFC3339),
			"goroutines":       runtime.NumGoroutine(),
			"mem_alloc_bytes":  ms.Alloc,
			"heap_inuse_bytes": ms.HeapInuse,
			"gc_num":           ms.NumGC,
		}
		if recent != nil {
			count, avg, p50, p95 := recent.Snapshot()
			resp["requests_total"] = count
			resp["duration_ms_avg"] = avg
			resp["duration_ms_p50"] = p50
			resp["duration_ms_p95"] = p95
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// RegisterPprof registers the standard pprof handlers under /debug/pprof/.
func RegisterPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pp.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pp.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pp.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pp.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pp.Trace)
	mux.Handle("/debug/pprof/goroutine", pp.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pp.Handler("heap"))
	mux.Handle("/debug/pprof/block", pp.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pp.Handler("mutex"))
}

// EnableProfiling toggles block/mutex profiling rates.
func EnableProfiling(enabled bool) {
	if enabled {
		runtime.SetBlockProfileRate(1)
		runtime.SetMutexProfileFraction(5)
		return
	}
	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)
}
