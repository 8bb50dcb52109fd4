// FILE: logvault/src/internal/core/entry.go
package core

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Represents a single stored log record
type LogRecord struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Level      string    `json:"level,omitempty" bson:"level,omitempty"`
	Message    string    `json:"message,omitempty" bson:"message,omitempty"`
	ResourceID string    `json:"resourceId,omitempty" bson:"resourceId,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	TraceID    string    `json:"traceId,omitempty" bson:"traceId,omitempty"`
	SpanID     string    `json:"spanId,omitempty" bson:"spanId,omitempty"`
	Commit     string    `json:"commit,omitempty" bson:"commit,omitempty"`
	Metadata   Metadata  `json:"metadata" bson:"metadata"`
	Issuer     string    `json:"issuer,omitempty" bson:"issuer,omitempty"`
}

// Nested record metadata
type Metadata struct {
	ParentResourceID string `json:"parentResourceId,omitempty" bson:"parentResourceId,omitempty"`
}

// Wire shape used while decoding, timestamp is accepted in several layouts
type logRecordJSON struct {
	ID         string          `json:"id"`
	Level      string          `json:"level"`
	Message    string          `json:"message"`
	ResourceID string          `json:"resourceId"`
	Timestamp  json.RawMessage `json:"timestamp"`
	TraceID    string          `json:"traceId"`
	SpanID     string          `json:"spanId"`
	Commit     string          `json:"commit"`
	Metadata   Metadata        `json:"metadata"`
	Issuer     string          `json:"issuer"`
}

// UnmarshalJSON accepts RFC3339, plain dates, and epoch milliseconds for the timestamp.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var raw logRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = LogRecord{
		ID:         raw.ID,
		Level:      raw.Level,
		Message:    raw.Message,
		ResourceID: raw.ResourceID,
		TraceID:    raw.TraceID,
		SpanID:     raw.SpanID,
		Commit:     raw.Commit,
		Metadata:   raw.Metadata,
		Issuer:     raw.Issuer,
	}

	ts := bytes.TrimSpace(raw.Timestamp)
	if len(ts) == 0 || bytes.Equal(ts, []byte("null")) {
		return nil
	}

	if ts[0] == '"' {
		var s string
		if err := json.Unmarshal(ts, &s); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		if s == "" {
			return nil
		}
		t, err := ParseTime(s)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		r.Timestamp = t
		return nil
	}

	ms, err := strconv.ParseInt(string(ts), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp: unsupported value %s", ts)
	}
	r.Timestamp = time.UnixMilli(ms).UTC()
	return nil
}
