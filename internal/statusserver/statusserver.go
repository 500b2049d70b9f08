// Package statusserver implements StatusServer (SPEC_FULL.md §2.12): an
// optional net/http server exposing /healthz (liveness) and /status
// (JSON progress snapshot) while a batch run is in progress.
//
// Grounded on WavesMan-ip-api/cmd/main.go's plain net/http server
// construction (no router framework) — matched here rather than
// gin-gonic/gin since this is two trivial read-only handlers, not a
// routed API (see DESIGN.md).
package statusserver

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Counters tracks BatchRunner progress, updated atomically by BatchRunner's
// workers so /status can read it without locking.
type Counters struct {
	Total     int64
	Completed int64
	InFlight  int64
	started   time.Time
}

// NewCounters returns a Counters set with Total pairs expected and the
// clock started.
func NewCounters(total int64) *Counters {
	return &Counters{Total: total, started: time.Now()}
}

func (c *Counters) StartTask()    { atomic.AddInt64(&c.InFlight, 1) }
func (c *Counters) FinishTask()   { atomic.AddInt64(&c.InFlight, -1); atomic.AddInt64(&c.Completed, 1) }

type statusPayload struct {
	Total      int64  `json:"total"`
	Completed  int64  `json:"completed"`
	InFlight   int64  `json:"in_flight"`
	ElapsedSec int64  `json:"elapsed_seconds"`
}

// Handler builds the /healthz + /status mux for Counters.
func Handler(c *Counters) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		payload := statusPayload{
			Total:      atomic.LoadInt64(&c.Total),
			Completed:  atomic.LoadInt64(&c.Completed),
			InFlight:   atomic.LoadInt64(&c.InFlight),
			ElapsedSec: int64(time.Since(c.started).Seconds()),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	})
	return mux
}

// Serve starts the status server on addr in its own goroutine and returns
// it; the error ListenAndServe returns (including ErrServerClosed after
// shutdown) is discarded.
func Serve(addr string, c *Counters) *http.Server {
	srv := &http.Server{Addr: addr, Handler: Handler(c)}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
