// FILE: logvault/src/internal/store/store.go
package store

import (
	"context"

	"logvault/src/internal/core"
	"logvault/src/internal/filter"
)

// LogRepository persists log records. Records are immutable once inserted.
type LogRepository interface {
	// Insert stores one record and returns its id. The id is generated when empty.
	Insert(ctx context.Context, record core.LogRecord) (string, error)
	// Find returns every record matching the filter in the store's natural order.
	Find(ctx context.Context, f *filter.Filter) ([]core.LogRecord, error)
}

// UserRepository is the credential store
type UserRepository interface {
	// Create stores a new user, failing with core.ErrDuplicateUsername if the name is taken.
	Create(ctx context.Context, user core.User) (string, error)
	// FindByUsername returns the user or (nil, nil) when no such user exists.
	FindByUsername(ctx context.Context, username string) (*core.User, error)
}

// Store bundles both repositories of one backend
type Store interface {
	Logs() LogRepository
	Users() UserRepository
	Close(ctx context.Context) error
	GetStats() map[string]any
}
