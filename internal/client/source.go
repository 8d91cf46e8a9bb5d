package client

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/geocoder89/worklink/internal/domain/chat"
)

var ErrBadCursor = errors.New("bad message cursor")

// Batch is the result of one fetch. Next is passed back on the following call.
type Batch struct {
	Messages []chat.Message
	Next     string
}

// MessageSource fetches chat messages newer than a cursor. Cursors are
// opaque to callers; an empty cursor means "from the start".
type MessageSource interface {
	ChatIDs(ctx context.Context) ([]string, error)
	Since(ctx context.Context, chatID, cursor string) (Batch, error)
}

// LocalSource serves messages out of a Store. Its cursor is the index of the
// next unseen message.
type LocalSource struct {
	store  *Store
	userID string
}

func NewLocalSource(store *Store, userID string) *LocalSource {
	return &LocalSource{store: store, userID: userID}
}

// ChatIDs lists chats the user takes part in, either by id or by having sent
// a message.
func (l *LocalSource) ChatIDs(ctx context.Context) ([]string, error) {
	log, err := l.store.Chats().Get()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(log))
	for id, msgs := range log {
		if l.involved(id, msgs) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *LocalSource) involved(chatID string, msgs []chat.Message) bool {
	for _, p := range chat.ImpliedParticipants(chatID) {
		if p == l.userID {
			return true
		}
	}
	for _, m := range msgs {
		if m.SenderID == l.userID {
			return true
		}
	}
	return false
}

func (l *LocalSource) Since(ctx context.Context, chatID, cursor string) (Batch, error) {
	from := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return Batch{}, ErrBadCursor
		}
		from = n
	}

	log, err := l.store.Chats().Get()
	if err != nil {
		return Batch{}, err
	}
	msgs := log[chatID]

	if from > len(msgs) {
		from = len(msgs)
	}
	out := append([]chat.Message(nil), msgs[from:]...)
	return Batch{Messages: out, Next: strconv.Itoa(len(msgs))}, nil
}
