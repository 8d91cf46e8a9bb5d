package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	me    = "w1"
	other = "c1"
)

func seedChat(t *testing.T, s *Store, chatID string, msgs ...chat.Message) {
	t.Helper()
	_, err := s.AppendMessages(chatID, msgs)
	require.NoError(t, err)
}

func TestLocalSource_CursorIsIndex(t *testing.T) {
	s := NewStore(NewMemoryKV())
	id := chat.ID(other, me, "p1")
	seedChat(t, s, id, chat.Message{ID: "m1"}, chat.Message{ID: "m2"})

	src := NewLocalSource(s, me)

	b, err := src.Since(context.Background(), id, "")
	require.NoError(t, err)
	assert.Len(t, b.Messages, 2)
	assert.Equal(t, "2", b.Next)

	b, err = src.Since(context.Background(), id, b.Next)
	require.NoError(t, err)
	assert.Empty(t, b.Messages)

	_, err = src.Since(context.Background(), id, "nope")
	assert.ErrorIs(t, err, ErrBadCursor)
}

func TestLocalSource_ChatIDsOnlyInvolvingUser(t *testing.T) {
	s := NewStore(NewMemoryKV())
	seedChat(t, s, chat.ID(other, me, "p1"), chat.Message{ID: "a"})
	seedChat(t, s, chat.ID(other, "w2", "p1"), chat.Message{ID: "b"})
	seedChat(t, s, "free-form", chat.Message{ID: "c", SenderID: me})

	ids, err := NewLocalSource(s, me).ChatIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{chat.ID(other, me, "p1"), "free-form"}, ids)
}

func TestRefresher_NotifiesOncePerNewUnreadBatch(t *testing.T) {
	s := NewStore(NewMemoryKV())
	id := chat.ID(other, me, "p1")
	seedChat(t, s, id,
		chat.Message{ID: "m1", SenderID: other, SenderName: "Ravi", Message: "hi"},
		chat.Message{ID: "m2", SenderID: me, SenderName: "Asha", Message: "hello"},
		chat.Message{ID: "m3", SenderID: other, SenderName: "Ravi", Message: "read", Read: true},
	)

	clock := newFakeClock()
	tray := NewTray(clock)
	r := NewRefresher(nil, NewLocalSource(s, me), tray, clock, RefresherConfig{UserID: me})

	n, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Unread())

	items := tray.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "New message from Ravi", items[0].Message)
	assert.Equal(t, id, items[0].ChatID)

	// nothing new
	n, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// own message does not notify
	seedChat(t, s, id, chat.Message{ID: "m4", SenderID: me, SenderName: "Asha"})
	n, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	seedChat(t, s, id, chat.Message{ID: "m5", SenderID: other, SenderName: "Ravi"})
	n, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, r.Unread())

	r.MarkRead(id)
	assert.Equal(t, 0, r.Unread())
}

type stubSource struct {
	mu      sync.Mutex
	ids     []string
	batches map[string]Batch
	errs    map[string]error
	calls   map[string][]string
}

func (s *stubSource) ChatIDs(context.Context) ([]string, error) { return s.ids, nil }

func (s *stubSource) Since(_ context.Context, chatID, cursor string) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls == nil {
		s.calls = make(map[string][]string)
	}
	s.calls[chatID] = append(s.calls[chatID], cursor)
	if err := s.errs[chatID]; err != nil {
		return Batch{}, err
	}
	b := s.batches[chatID]
	s.batches[chatID] = Batch{Next: b.Next}
	return b, nil
}

func (s *stubSource) snapshot(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls[chatID]...)
}

func TestRefresher_SkipsFailingChatAndMirrors(t *testing.T) {
	src := &stubSource{
		ids: []string{"bad", "good"},
		batches: map[string]Batch{
			"good": {Messages: []chat.Message{{ID: "x", SenderID: other, SenderName: "Ravi"}}, Next: "cur-1"},
		},
		errs: map[string]error{"bad": errors.New("down")},
	}
	mirror := NewStore(NewMemoryKV())

	clock := newFakeClock()
	r := NewRefresher(nil, src, NewTray(clock), clock, RefresherConfig{UserID: me, Mirror: mirror})

	n, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "cur-1"}, src.snapshot("good"), "cursor carried to the next pass")

	log, err := mirror.Chats().Get()
	require.NoError(t, err)
	assert.Len(t, log["good"], 1)
}

func TestRefresher_RunTicksOnInterval(t *testing.T) {
	src := &stubSource{ids: []string{"c"}, batches: map[string]Batch{"c": {Next: "1"}}}
	clock := newFakeClock()
	r := NewRefresher(nil, src, NewTray(clock), clock, RefresherConfig{UserID: me})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		clock.Advance(DefaultRefreshInterval)
		return len(src.snapshot("c")) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}
