// Package status keeps server counters and serves them over a small side HTTP endpoint.
package status

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts connections and responses. The zero value is ready to use but reports no uptime;
// NewStats starts the clock. A nil *Stats ignores every call.
type Stats struct {
	started time.Time

	accepted atomic.Int64
	active   atomic.Int64
	failed   atomic.Int64

	mu        sync.Mutex
	responses map[int]uint64
}

func NewStats() *Stats {
	return &Stats{
		started:   time.Now(),
		responses: make(map[int]uint64),
	}
}

// Accepted records a connection handed to a worker.
func (s *Stats) Accepted() {
	if s == nil {
		return
	}
	s.accepted.Add(1)
	s.active.Add(1)
}

// Finished records a worker done with its connection. code is the status sent, 0 for none.
func (s *Stats) Finished(code int) {
	if s == nil {
		return
	}
	s.active.Add(-1)
	if code == 0 {
		return
	}
	s.mu.Lock()
	if s.responses == nil {
		s.responses = make(map[int]uint64)
	}
	s.responses[code]++
	s.mu.Unlock()
}

// Failed records a connection that ended on an I/O failure.
func (s *Stats) Failed() {
	if s == nil {
		return
	}
	s.failed.Add(1)
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Uptime    string            `json:"uptime"`
	Accepted  int64             `json:"accepted"`
	Active    int64             `json:"active"`
	Failed    int64             `json:"failed"`
	Responses map[string]uint64 `json:"responses"`
}

func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{Responses: map[string]uint64{}}
	}
	var uptime time.Duration
	if !s.started.IsZero() {
		uptime = time.Since(s.started).Round(time.Second)
	}
	snap := Snapshot{
		Uptime:    uptime.String(),
		Accepted:  s.accepted.Load(),
		Active:    s.active.Load(),
		Failed:    s.failed.Load(),
		Responses: make(map[string]uint64),
	}
	s.mu.Lock()
	for code, n := range s.responses {
		snap.Responses[strconv.Itoa(code)] = n
	}
	s.mu.Unlock()
	return snap
}
