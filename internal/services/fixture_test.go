package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
	"waz-calendar/internal/store"
)

var (
	errInjected = errors.New("injected failure")
	testEpoch   = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
)

// recorder captures published bus messages.
type recorder struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (r *recorder) Publish(_ context.Context, msg bus.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) ofType(kind string) []bus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bus.Message
	for _, m := range r.msgs {
		if m.Type == kind {
			out = append(out, m)
		}
	}
	return out
}

// countingStore counts every call that reaches the backend.
type countingStore struct {
	store.ObjectStore
	calls atomic.Int64
}

func (s *countingStore) Exists(ctx context.Context, p string) (bool, error) {
	s.calls.Add(1)
	return s.ObjectStore.Exists(ctx, p)
}

func (s *countingStore) Read(ctx context.Context, p string) (store.Object, error) {
	s.calls.Add(1)
	return s.ObjectStore.Read(ctx, p)
}

func (s *countingStore) Write(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	s.calls.Add(1)
	return s.ObjectStore.Write(ctx, p, content, version, message)
}

func (s *countingStore) Delete(ctx context.Context, p, version, message string) error {
	s.calls.Add(1)
	return s.ObjectStore.Delete(ctx, p, version, message)
}

func (s *countingStore) List(ctx context.Context, dir string) ([]store.Entry, error) {
	s.calls.Add(1)
	return s.ObjectStore.List(ctx, dir)
}

// failingDir fails every Save of one account.
type failingDir struct {
	repositories.AccountDirectory
	failFor string
}

func (d failingDir) Save(ctx context.Context, handle repositories.AccountHandle, account models.Account) (repositories.AccountHandle, error) {
	if account.Username == d.failFor {
		return repositories.AccountHandle{}, errInjected
	}
	return d.AccountDirectory.Save(ctx, handle, account)
}

type fixture struct {
	store *countingStore
	dir   *repositories.AccountDir
	bus   *recorder
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	git, err := store.NewGitStore(memfs.New(), "test", "test@example.com")
	require.NoError(t, err)

	s := &countingStore{ObjectStore: git}
	f := &fixture{
		store: s,
		dir:   repositories.NewAccountDir(s, repositories.NewMemoryIndex()).WithClock(steppingClock(testEpoch)),
		bus:   &recorder{},
	}
	for _, name := range usernames {
		_, err := f.dir.Create(context.Background(), models.Account{Username: name, PasswordHash: "x"})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) account(t *testing.T, username string) models.Account {
	t.Helper()
	rec, err := f.dir.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return rec.Account
}

func (f *fixture) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		rec, err := f.dir.FindByUsername(ctx, pair[0])
		require.NoError(t, err)
		rec.Account.AddFriend(pair[1])
		_, err = f.dir.Save(ctx, rec.Handle, rec.Account)
		require.NoError(t, err)
	}
}

func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func intPtr(v int) *int {
	return &v
}
