// FILE: logvault/src/internal/ingest/ingest.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"logvault/src/internal/core"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
)

// Ingestor accepts log records from admin callers
type Ingestor struct {
	logs   store.LogRepository
	logger *log.Logger
	now    func() time.Time

	// Statistics
	totalIngested atomic.Uint64
	totalDenied   atomic.Uint64
	totalFailed   atomic.Uint64
	lastIngest    atomic.Value // time.Time
}

// New creates an ingestor writing to logs
func New(logs store.LogRepository, logger *log.Logger) *Ingestor {
	i := &Ingestor{
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
	i.lastIngest.Store(time.Time{})
	return i
}

// Ingest stores record on behalf of identity and returns the new id.
// The record is stored as given apart from the issuer stamp, a server id and a default timestamp.
func (i *Ingestor) Ingest(ctx context.Context, identity core.Identity, record core.LogRecord) (string, error) {
	if !identity.IsAdmin() {
		i.totalDenied.Add(1)
		i.logger.Warn("msg", "Ingestion denied",
			"component", "ingest",
			"username", identity.Username,
			"role", identity.Role)
		return "", fmt.Errorf("%w: role %q cannot ingest logs", core.ErrPermissionDenied, identity.Role)
	}

	// Ids are always assigned by the store
	record.ID = ""
	record.Issuer = identity.Username
	if record.Timestamp.IsZero() {
		record.Timestamp = i.now().UTC()
	}

	id, err := i.logs.Insert(ctx, record)
	if err != nil {
		i.totalFailed.Add(1)
		i.logger.Error("msg", "Failed to store log record",
			"component", "ingest",
			"issuer", identity.Username,
			"error", err)
		if !errors.Is(err, core.ErrPersistence) {
			err = fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		return "", err
	}

	i.totalIngested.Add(1)
	i.lastIngest.Store(i.now())

	i.logger.Debug("msg", "Log record ingested",
		"component", "ingest",
		"id", id,
		"issuer", identity.Username,
		"level", record.Level)

	return id, nil
}

func (i *Ingestor) GetStats() map[string]any {
	return map[string]any{
		"total_ingested": i.totalIngested.Load(),
		"total_denied":   i.totalDenied.Load(),
		"total_failed":   i.totalFailed.Load(),
		"last_ingest":    i.lastIngest.Load().(time.Time),
	}
}
