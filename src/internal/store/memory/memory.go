// FILE: logvault/src/internal/store/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"logvault/src/internal/core"
	"logvault/src/internal/filter"
	"logvault/src/internal/store"

	"github.com/google/uuid"
)

// Store is a threadsafe in-process backend. Contents are lost on restart.
type Store struct {
	mu    sync.RWMutex
	logs  []core.LogRecord
	ids   map[string]struct{}
	users map[string]core.User // username -> user

	// Statistics
	totalInserts atomic.Uint64
	totalFinds   atomic.Uint64
}

var _ store.Store = (*Store)(nil)

// New creates an empty memory store
func New() *Store {
	return &Store{
		logs:  make([]core.LogRecord, 0, 1024),
		ids:   make(map[string]struct{}),
		users: make(map[string]core.User),
	}
}

func (s *Store) Logs() store.LogRepository {
	return logRepo{s}
}

func (s *Store) Users() store.UserRepository {
	return userRepo{s}
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"type":          "memory",
		"log_count":     len(s.logs),
		"user_count":    len(s.users),
		"total_inserts": s.totalInserts.Load(),
		"total_finds":   s.totalFinds.Load(),
	}
}

type logRepo struct {
	s *Store
}

func (r logRepo) Insert(ctx context.Context, record core.LogRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: insert log: %w", core.ErrPersistence, err)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.ids[record.ID]; exists {
		return "", fmt.Errorf("%w: insert log: duplicate id %s", core.ErrPersistence, record.ID)
	}
	r.s.ids[record.ID] = struct{}{}
	r.s.logs = append(r.s.logs, record)
	r.s.totalInserts.Add(1)
	return record.ID, nil
}

func (r logRepo) Find(ctx context.Context, f *filter.Filter) ([]core.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: find logs: %w", core.ErrPersistence, err)
	}
	if err := f.LocalErr(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	r.s.totalFinds.Add(1)

	results := make([]core.LogRecord, 0)
	for i := range r.s.logs {
		if f.Match(&r.s.logs[i]) {
			results = append(results, r.s.logs[i])
		}
	}
	return results, nil
}

type userRepo struct {
	s *Store
}

func (r userRepo) Create(ctx context.Context, user core.User) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: create user: %w", core.ErrPersistence, err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[user.Username]; exists {
		return "", core.ErrDuplicateUsername
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.s.users[user.Username] = user
	return user.ID, nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: find user: %w", core.ErrPersistence, err)
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[username]
	if !ok {
		return nil, nil
	}
	return &user, nil
}
