package service

import (
	"context"
	"testing"

	"stratus/internal/event"
	"stratus/internal/model"
	"stratus/internal/storage"
	"stratus/internal/store"
)

type testEnv struct {
	store   *store.Store
	backend *storage.LocalBackend
	bus     *event.Bus
	locks   *store.KeyedMutex

	users  *UserService
	files  *FileService
	shares *ShareService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	backend, err := storage.NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	bus := event.NewBus()
	locks := store.NewKeyedMutex()
	fileRepo := store.NewFileRepo(s.GetDB())
	shareRepo := store.NewShareRepo(s.GetDB())

	return &testEnv{
		store:   s,
		backend: backend,
		bus:     bus,
		locks:   locks,
		users:   NewUserService(store.NewUserRepo(s.GetDB())),
		files:   NewFileService(backend, fileRepo, shareRepo, locks, bus),
		shares:  NewShareService(shareRepo, fileRepo, bus),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), username, "secret", false)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}
