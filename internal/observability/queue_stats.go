package observability

import (
	"sync"
	"time"
)

// Queue results, shared with the worker's Prometheus labels.
const (
	ResultDone       = "done"
	ResultRetry      = "retry"
	ResultFailed     = "failed"
	ResultDeadLetter = "dead_letter"
)

// QueueStats is the in-process tally a worker logs when it stops.
type QueueStats struct {
	mu        sync.Mutex
	claimed   uint64
	results   map[string]uint64
	delivered map[string]uint64

	durCount uint64
	durTotal time.Duration
	durMax   time.Duration
}

func NewQueueStats() *QueueStats {
	return &QueueStats{
		results:   make(map[string]uint64),
		delivered: make(map[string]uint64),
	}
}

func (s *QueueStats) Claimed() {
	s.mu.Lock()
	s.claimed++
	s.mu.Unlock()
}

// Finished records how a claimed job ended and how long it ran.
func (s *QueueStats) Finished(result string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result]++
	s.durCount++
	s.durTotal += d
	if d > s.durMax {
		s.durMax = d
	}
}

// Delivered counts a notification handed to the notifier, by kind.
func (s *QueueStats) Delivered(kind string) {
	s.mu.Lock()
	s.delivered[kind]++
	s.mu.Unlock()
}

type QueueSnapshot struct {
	Claimed      uint64
	Done         uint64
	Retried      uint64
	Failed       uint64
	DeadLettered uint64
	Delivered    map[string]uint64

	AverageDuration time.Duration
	MaxDuration     time.Duration
}

func (s *QueueStats) Snapshot() QueueSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := QueueSnapshot{
		Claimed:      s.claimed,
		Done:         s.results[ResultDone],
		Retried:      s.results[ResultRetry],
		Failed:       s.results[ResultFailed],
		DeadLettered: s.results[ResultDeadLetter],
		Delivered:    make(map[string]uint64, len(s.delivered)),
		MaxDuration:  s.durMax,
	}
	for k, v := range s.delivered {
		out.Delivered[k] = v
	}
	if s.durCount > 0 {
		out.AverageDuration = s.durTotal / time.Duration(s.durCount)
	}
	return out
}
