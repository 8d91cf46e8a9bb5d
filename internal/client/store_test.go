package client

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/domain/saved"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_GetEmptyIsZero(t *testing.T) {
	s := NewStore(NewMemoryKV())

	posts, err := s.WorkPosts().Get()
	require.NoError(t, err)
	assert.Nil(t, posts)
}

func TestCollection_SetThenGet(t *testing.T) {
	s := NewStore(NewMemoryKV())

	in := []workpost.WorkPost{{ID: "p1", Title: "Tiling", Status: workpost.StatusActive}}
	require.NoError(t, s.WorkPosts().Set(in))

	out, err := s.WorkPosts().Get()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Tiling", out[0].Title)
}

func TestCollection_UpdateIsAtomic(t *testing.T) {
	s := NewStore(NewMemoryKV())

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.SavedJobs("w1").Update(func(v *[]saved.Job) error {
				*v = append(*v, saved.Job{UserID: "w1"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	jobs, err := s.SavedJobs("w1").Get()
	require.NoError(t, err)
	assert.Len(t, jobs, writers, "no update may be lost")
}

func TestCollection_UpdateErrorLeavesValue(t *testing.T) {
	s := NewStore(NewMemoryKV())
	require.NoError(t, s.SavedWorkers("c1").Set([]saved.Worker{{ID: "s1"}}))

	boom := errors.New("boom")
	err := s.SavedWorkers("c1").Update(func(v *[]saved.Worker) error {
		*v = nil
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.SavedWorkers("c1").Get()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_SavedCollectionsArePerUser(t *testing.T) {
	s := NewStore(NewMemoryKV())
	require.NoError(t, s.SavedJobs("a").Set([]saved.Job{{ID: "1"}}))

	other, err := s.SavedJobs("b").Get()
	require.NoError(t, err)
	assert.Empty(t, other)
	assert.NotEqual(t, s.SavedJobs("a").Key(), s.SavedWorkers("a").Key())
}

func TestStore_AppendMessagesSkipsKnownIDs(t *testing.T) {
	s := NewStore(NewMemoryKV())

	n, err := s.AppendMessages("c_w_direct", []chat.Message{{ID: "m1"}, {ID: "m2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.AppendMessages("c_w_direct", []chat.Message{{ID: "m2"}, {ID: "m3"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	log, err := s.Chats().Get()
	require.NoError(t, err)
	assert.Len(t, log["c_w_direct"], 3)
}

func TestFileKV_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	kv, err := OpenFileKV(path)
	require.NoError(t, err)
	s := NewStore(kv)
	require.NoError(t, s.WorkPosts().Set([]workpost.WorkPost{{ID: "p1"}}))
	require.NoError(t, s.SavedJobs("w1").Set([]saved.Job{{ID: "s1"}}))

	reopened, err := OpenFileKV(path)
	require.NoError(t, err)
	s2 := NewStore(reopened)

	posts, err := s2.WorkPosts().Get()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)

	require.NoError(t, reopened.Delete(s2.SavedJobs("w1").Key()))
	_, ok, err := reopened.Get(s2.SavedJobs("w1").Key())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileKV_RejectsInvalidJSON(t *testing.T) {
	kv, err := OpenFileKV(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	assert.Error(t, kv.Put("k", []byte("{not json")))
}

func TestUpsertUser(t *testing.T) {
	users := UpsertUser(nil, user.Public{ID: "u1", Name: "Asha"})
	users = UpsertUser(users, user.Public{ID: "u2", Name: "Ravi"})
	users = UpsertUser(users, user.Public{ID: "u1", Name: "Asha K"})

	require.Len(t, users, 2)
	assert.Equal(t, "Asha K", users[0].Name)
}
