package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/saved"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workerprofile"
	"github.com/geocoder89/worklink/internal/domain/workpost"
)

// KV is the raw byte storage under a Store.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// FileKV keeps every key in one JSON document and rewrites it on each change.
type FileKV struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

func OpenFileKV(path string) (*FileKV, error) {
	f := &FileKV{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return f, nil
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (f *FileKV) Put(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid json", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = append(json.RawMessage(nil), value...)
	return f.flush()
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flush()
}

// flush writes a temp file next to the target and renames it over.
func (f *FileKV) flush() error {
	b, err := json.Marshal(f.data)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".worklink-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Collection is one typed value stored under a single key.
type Collection[T any] struct {
	kv  KV
	key string
	mu  *sync.Mutex
}

func (c Collection[T]) Key() string { return c.key }

// Get returns the zero value when nothing is stored yet.
func (c Collection[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c Collection[T]) Set(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(v)
}

// Update runs fn on the current value and stores the result while holding the
// key's lock. Nothing is written when fn returns an error.
func (c Collection[T]) Update(fn func(v *T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return c.save(v)
}

func (c Collection[T]) load() (T, error) {
	var v T

	raw, ok, err := c.kv.Get(c.key)
	if err != nil || !ok {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return v, nil
}

func (c Collection[T]) save(v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.kv.Put(c.key, b)
}

const (
	keyUsers              = "users"
	keyWorkPosts          = "workPosts"
	keyWorkerProfiles     = "workerProfiles"
	keyConnectionRequests = "connectionRequests"
	keyChats              = "chats"
	keySavedJobsPrefix    = "savedJobs_"
	keySavedWorkersPrefix = "savedWorkers_"
)

// ChatLog maps a chat id to its messages in send order.
type ChatLog map[string][]chat.Message

// Store hands out typed collections. Collections for the same key share a
// lock, so Update calls on one key never interleave.
type Store struct {
	kv KV

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func collection[T any](s *Store, key string) Collection[T] {
	return Collection[T]{kv: s.kv, key: key, mu: s.lockFor(key)}
}

func (s *Store) Users() Collection[[]user.Public] {
	return collection[[]user.Public](s, keyUsers)
}

func (s *Store) WorkPosts() Collection[[]workpost.WorkPost] {
	return collection[[]workpost.WorkPost](s, keyWorkPosts)
}

func (s *Store) WorkerProfiles() Collection[[]workerprofile.Profile] {
	return collection[[]workerprofile.Profile](s, keyWorkerProfiles)
}

func (s *Store) ConnectionRequests() Collection[[]connection.Request] {
	return collection[[]connection.Request](s, keyConnectionRequests)
}

func (s *Store) Chats() Collection[ChatLog] {
	return collection[ChatLog](s, keyChats)
}

func (s *Store) SavedJobs(userID string) Collection[[]saved.Job] {
	return collection[[]saved.Job](s, keySavedJobsPrefix+userID)
}

func (s *Store) SavedWorkers(userID string) Collection[[]saved.Worker] {
	return collection[[]saved.Worker](s, keySavedWorkersPrefix+userID)
}

// AppendMessages adds messages to a chat, skipping ids it already holds.
// It returns how many were added.
func (s *Store) AppendMessages(chatID string, msgs []chat.Message) (int, error) {
	added := 0
	err := s.Chats().Update(func(log *ChatLog) error {
		if *log == nil {
			*log = make(ChatLog)
		}
		existing := (*log)[chatID]

		seen := make(map[string]struct{}, len(existing))
		for _, m := range existing {
			if m.ID != "" {
				seen[m.ID] = struct{}{}
			}
		}
		for _, m := range msgs {
			if m.ID != "" {
				if _, dup := seen[m.ID]; dup {
					continue
				}
				seen[m.ID] = struct{}{}
			}
			existing = append(existing, m)
			added++
		}
		(*log)[chatID] = existing
		return nil
	})
	return added, err
}

// UpsertUser replaces the entry with the same id or appends u.
func UpsertUser(users []user.Public, u user.Public) []user.Public {
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			return users
		}
	}
	return append(users, u)
}
