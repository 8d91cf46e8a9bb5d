package observability

import (
	"sync"
	"testing"
	"time"
)

func TestQueueStatsSnapshot(t *testing.T) {
	s := NewQueueStats()
	s.Claimed()
	s.Claimed()
	s.Claimed()
	s.Finished(ResultDone, 100*time.Millisecond)
	s.Finished(ResultRetry, 300*time.Millisecond)
	s.Finished(ResultDeadLetter, 200*time.Millisecond)
	s.Delivered("job_application")
	s.Delivered("job_application")
	s.Delivered("contact_request")

	snap := s.Snapshot()
	if snap.Claimed != 3 || snap.Done != 1 || snap.Retried != 1 || snap.DeadLettered != 1 || snap.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.AverageDuration != 200*time.Millisecond {
		t.Fatalf("expected 200ms avg, got %s", snap.AverageDuration)
	}
	if snap.MaxDuration != 300*time.Millisecond {
		t.Fatalf("expected 300ms max, got %s", snap.MaxDuration)
	}
	if snap.Delivered["job_application"] != 2 || snap.Delivered["contact_request"] != 1 {
		t.Fatalf("unexpected deliveries: %v", snap.Delivered)
	}

	snap.Delivered["job_application"] = 99
	if s.Snapshot().Delivered["job_application"] != 2 {
		t.Fatalf("snapshot must not alias internal state")
	}
}

func TestQueueStats_Concurrent(t *testing.T) {
	s := NewQueueStats()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Claimed()
			s.Finished(ResultDone, time.Millisecond)
		}()
	}
	wg.Wait()

	if got := s.Snapshot(); got.Claimed != 20 || got.Done != 20 {
		t.Fatalf("lost updates: %+v", got)
	}
}
