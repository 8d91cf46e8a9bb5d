package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/worklink/internal/domain/chat"
)

const DefaultRefreshInterval = 3 * time.Second

const KindMessage = "message"

type RefresherConfig struct {
	UserID   string
	Interval time.Duration
	// Mirror, when set, receives every fetched message.
	Mirror *Store
}

// Refresher polls a MessageSource for the user's chats and raises tray
// notifications for unread messages from other participants.
type Refresher struct {
	src   MessageSource
	tray  *Tray
	clock Clock
	log   *slog.Logger
	cfg   RefresherConfig

	mu      sync.Mutex
	cursors map[string]string
	unread  map[string]map[string]struct{}
}

func NewRefresher(log *slog.Logger, src MessageSource, tray *Tray, clock Clock, cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		src:     src,
		tray:    tray,
		clock:   clock,
		log:     log,
		cfg:     cfg,
		cursors: make(map[string]string),
		unread:  make(map[string]map[string]struct{}),
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.log.Info("refresher started", "user_id", r.cfg.UserID, "interval", r.cfg.Interval.String())

	ticker := r.clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresher stopped", "user_id", r.cfg.UserID)
			return nil
		case <-ticker.C():
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		r.log.Warn("refresh failed", "user_id", r.cfg.UserID, "err", err)
	}
}

// Refresh runs one polling pass and returns how many notifications it raised.
// A failing chat is logged and skipped so the others still refresh.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	ids, err := r.src.ChatIDs(ctx)
	if err != nil {
		return 0, err
	}

	raised := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return raised, ctx.Err()
		}

		r.mu.Lock()
		cursor := r.cursors[id]
		r.mu.Unlock()

		batch, err := r.src.Since(ctx, id, cursor)
		if err != nil {
			r.log.Warn("chat refresh failed", "chat_id", id, "err", err)
			continue
		}

		if r.cfg.Mirror != nil && len(batch.Messages) > 0 {
			if _, err := r.cfg.Mirror.AppendMessages(id, batch.Messages); err != nil {
				r.log.Warn("could not mirror messages", "chat_id", id, "err", err)
			}
		}

		latest := r.detect(id, batch)
		if latest != nil {
			r.tray.Push(Notification{
				Kind:    KindMessage,
				Title:   "New Message",
				Message: "New message from " + latest.SenderName,
				ChatID:  id,
				At:      latest.Timestamp,
			})
			raised++
		}
	}
	return raised, nil
}

// detect records the batch and returns the newest unread message from someone
// else, or nil.
func (r *Refresher) detect(chatID string, batch Batch) *chat.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	if batch.Next != "" {
		r.cursors[chatID] = batch.Next
	}

	var latest *chat.Message
	for i := range batch.Messages {
		m := batch.Messages[i]
		if m.SenderID == r.cfg.UserID || m.Read {
			continue
		}
		set, ok := r.unread[chatID]
		if !ok {
			set = make(map[string]struct{})
			r.unread[chatID] = set
		}
		set[m.ID] = struct{}{}
		latest = &batch.Messages[i]
	}
	return latest
}

// Unread is the number of unread messages from others seen so far.
func (r *Refresher) Unread() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, set := range r.unread {
		n += len(set)
	}
	return n
}

// MarkRead forgets the unread messages of one chat.
func (r *Refresher) MarkRead(chatID string) {
	r.mu.Lock()
	delete(r.unread, chatID)
	r.mu.Unlock()
}
