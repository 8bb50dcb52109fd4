// FILE: logvault/src/internal/query/engine.go
package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"logvault/src/internal/config"
	"logvault/src/internal/core"
	"logvault/src/internal/filter"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
)

// Param is an optional request parameter. Set distinguishes "?x=" from a missing x.
type Param struct {
	Value string
	Set   bool
}

// Value wraps a supplied parameter
func Value(v string) Param {
	return Param{Value: v, Set: true}
}

// Unset is a missing parameter
var Unset = Param{}

// present reports whether the parameter carries a non-empty value
func (p Param) present() bool {
	return p.Set && p.Value != ""
}

// RangeParams are the inputs of the multi-filter time range query
type RangeParams struct {
	Level            Param
	Message          Param
	ResourceID       Param
	ParentResourceID Param
	StartDate        Param
	EndDate          Param
}

// Fields usable with ByField, keyed by request parameter name
var byFieldParams = map[string]string{
	"resourceId":       core.FieldResourceID,
	"traceId":          core.FieldTraceID,
	"spanId":           core.FieldSpanID,
	"commit":           core.FieldCommit,
	"parentResourceId": core.FieldParentResourceID,
}

// FieldForParam maps a request parameter name to its record field
func FieldForParam(param string) (string, bool) {
	field, ok := byFieldParams[param]
	return field, ok
}

// Engine translates lookups into filters and runs them against the log repository
type Engine struct {
	logs   store.LogRepository
	unset  string
	logger *log.Logger

	// Statistics
	totalQueries atomic.Uint64
	totalResults atomic.Uint64
	totalFailed  atomic.Uint64
	totalInvalid atomic.Uint64
}

// New creates a query engine. unsetPolicy is config.UnsetAbsent or config.UnsetOmit.
func New(logs store.LogRepository, unsetPolicy string, logger *log.Logger) *Engine {
	if unsetPolicy == "" {
		unsetPolicy = config.UnsetAbsent
	}
	return &Engine{
		logs:   logs,
		unset:  unsetPolicy,
		logger: logger,
	}
}

// Search filters by level and an optional full-text query
func (e *Engine) Search(ctx context.Context, level, q Param) ([]core.LogRecord, error) {
	f := filter.New()
	e.equalOrUnset(f, core.FieldLevel, level)
	if q.present() {
		f.Text(q.Value)
	}
	return e.run(ctx, "search", f)
}

// ByMessage matches message against a case-insensitive regular expression.
// A missing parameter is an empty pattern.
func (e *Engine) ByMessage(ctx context.Context, message Param) ([]core.LogRecord, error) {
	f := filter.New().Pattern(core.FieldMessage, message.Value)
	return e.run(ctx, "by_message", f)
}

// ByField is an equality lookup on one of the identifier fields
func (e *Engine) ByField(ctx context.Context, field string, value Param) ([]core.LogRecord, error) {
	switch field {
	case core.FieldResourceID, core.FieldTraceID, core.FieldSpanID,
		core.FieldCommit, core.FieldParentResourceID:
	default:
		e.totalInvalid.Add(1)
		return nil, fmt.Errorf("%w: lookup by %q not supported", core.ErrInvalidQuery, field)
	}

	f := filter.New()
	e.equalOrUnset(f, field, value)
	return e.run(ctx, "by_"+field, f)
}

// ByTimestampRange combines optional equality filters with an inclusive timestamp range.
// Missing or empty parameters are dropped. The range applies only when both ends are given.
func (e *Engine) ByTimestampRange(ctx context.Context, p RangeParams) ([]core.LogRecord, error) {
	f := filter.New()
	for _, eq := range []struct {
		field string
		param Param
	}{
		{core.FieldLevel, p.Level},
		{core.FieldMessage, p.Message},
		{core.FieldResourceID, p.ResourceID},
		{core.FieldParentResourceID, p.ParentResourceID},
	} {
		if eq.param.present() {
			f.Equal(eq.field, eq.param.Value)
		}
	}

	if p.StartDate.present() && p.EndDate.present() {
		from, errFrom := core.ParseTime(p.StartDate.Value)
		to, errTo := core.ParseTime(p.EndDate.Value)
		if errFrom != nil || errTo != nil {
			// An unparseable bound can never match
			e.totalQueries.Add(1)
			e.logger.Debug("msg", "Unparseable date range, returning no results",
				"component", "query",
				"start_date", p.StartDate.Value,
				"end_date", p.EndDate.Value)
			return []core.LogRecord{}, nil
		}
		f.Range(core.FieldTimestamp, from, to)
	}

	return e.run(ctx, "by_timestamp_range", f)
}

// equalOrUnset adds an equality clause, or applies the unset policy for a missing parameter
func (e *Engine) equalOrUnset(f *filter.Filter, field string, p Param) {
	if p.Set {
		f.Equal(field, p.Value)
		return
	}
	if e.unset == config.UnsetAbsent {
		f.Absent(field)
	}
}

func (e *Engine) run(ctx context.Context, op string, f *filter.Filter) ([]core.LogRecord, error) {
	e.totalQueries.Add(1)

	if err := f.Err(); err != nil {
		e.totalInvalid.Add(1)
		e.logger.Warn("msg", "Rejected query",
			"component", "query",
			"op", op,
			"error", err)
		return nil, err
	}

	start := time.Now()
	records, err := e.logs.Find(ctx, f)
	if errors.Is(err, core.ErrInvalidQuery) {
		// Rejected by the store's own pattern engine
		e.totalInvalid.Add(1)
		e.logger.Warn("msg", "Rejected query",
			"component", "query",
			"op", op,
			"error", err)
		return nil, err
	}
	if err != nil {
		e.totalFailed.Add(1)
		e.logger.Error("msg", "Query failed",
			"component", "query",
			"op", op,
			"filter", f.Describe(),
			"error", err)
		if !errors.Is(err, core.ErrPersistence) {
			err = fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		return nil, err
	}

	if records == nil {
		records = []core.LogRecord{}
	}
	e.totalResults.Add(uint64(len(records)))

	e.logger.Debug("msg", "Query executed",
		"component", "query",
		"op", op,
		"filter", f.Describe(),
		"results", len(records),
		"duration", time.Since(start))

	return records, nil
}

// UnsetPolicy returns the policy applied to missing single-field parameters
func (e *Engine) UnsetPolicy() string {
	return e.unset
}

func (e *Engine) GetStats() map[string]any {
	return map[string]any{
		"unset_params":  e.unset,
		"total_queries": e.totalQueries.Load(),
		"total_results": e.totalResults.Load(),
		"total_failed":  e.totalFailed.Load(),
		"total_invalid": e.totalInvalid.Load(),
	}
}
