package client

import (
	"strconv"
	"sync"
	"time"
)

const (
	DefaultTrayLimit = 5
	DefaultTrayTTL   = 5 * time.Second
)

type Notification struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	ChatID  string    `json:"chatId,omitempty"`
	At      time.Time `json:"at"`
}

// Tray holds the most recent notifications, newest first. Each entry removes
// itself after the TTL.
type Tray struct {
	clock Clock
	limit int
	ttl   time.Duration

	// OnPush, when set, is called after a notification is added.
	OnPush func(Notification)

	mu     sync.Mutex
	seq    int
	items  []Notification
	timers map[string]Timer
}

func NewTray(clock Clock) *Tray {
	if clock == nil {
		clock = RealClock{}
	}
	return &Tray{
		clock:  clock,
		limit:  DefaultTrayLimit,
		ttl:    DefaultTrayTTL,
		timers: make(map[string]Timer),
	}
}

// Push adds n at the front, dropping the oldest entries past the limit.
func (t *Tray) Push(n Notification) Notification {
	t.mu.Lock()

	t.seq++
	n.ID = strconv.FormatInt(t.clock.Now().UnixMilli(), 10) + "-" + strconv.Itoa(t.seq)
	if n.At.IsZero() {
		n.At = t.clock.Now()
	}

	t.items = append([]Notification{n}, t.items...)
	for len(t.items) > t.limit {
		last := t.items[len(t.items)-1]
		t.items = t.items[:len(t.items)-1]
		if tm, ok := t.timers[last.ID]; ok {
			tm.Stop()
			delete(t.timers, last.ID)
		}
	}

	id := n.ID
	t.timers[id] = t.clock.AfterFunc(t.ttl, func() { t.Dismiss(id) })
	hook := t.OnPush
	t.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return n
}

// Dismiss removes a notification. It reports whether it was still present.
func (t *Tray) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tm, ok := t.timers[id]; ok {
		tm.Stop()
		delete(t.timers, id)
	}
	for i, n := range t.items {
		if n.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Tray) Items() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Notification(nil), t.items...)
}

func (t *Tray) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
