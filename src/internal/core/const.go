// FILE: logvault/src/internal/core/const.go
package core

import "time"

// Default token lifetime
const DefaultTokenTTL = time.Hour

// Field paths recognized by the query engine, named as stored
const (
	FieldID               = "_id"
	FieldLevel            = "level"
	FieldMessage          = "message"
	FieldResourceID       = "resourceId"
	FieldTimestamp        = "timestamp"
	FieldTraceID          = "traceId"
	FieldSpanID           = "spanId"
	FieldCommit           = "commit"
	FieldParentResourceID = "metadata.parentResourceId"
	FieldIssuer           = "issuer"
)

// TextFields are the fields covered by full-text search
var TextFields = []string{FieldMessage, FieldLevel, FieldResourceID, FieldCommit}

// FieldValue returns the string value of a recognized field, and whether the field is set.
func (r *LogRecord) FieldValue(field string) (string, bool) {
	var v string
	switch field {
	case FieldID:
		v = r.ID
	case FieldLevel:
		v = r.Level
	case FieldMessage:
		v = r.Message
	case FieldResourceID:
		v = r.ResourceID
	case FieldTraceID:
		v = r.TraceID
	case FieldSpanID:
		v = r.SpanID
	case FieldCommit:
		v = r.Commit
	case FieldParentResourceID:
		v = r.Metadata.ParentResourceID
	case FieldIssuer:
		v = r.Issuer
	default:
		return "", false
	}
	return v, v != ""
}
