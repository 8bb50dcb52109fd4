// FILE: logvault/src/internal/filter/filter.go
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"logvault/src/internal/core"
)

// Kind is the match kind of a single clause
type Kind int

const (
	KindEqual   Kind = iota // exact string equality
	KindPattern             // case-insensitive regular expression
	KindRange               // inclusive time range
	KindText                // full-text search over core.TextFields
	KindAbsent              // field unset (absent or null in the store)
)

func (k Kind) String() string {
	switch k {
	case KindEqual:
		return "equal"
	case KindPattern:
		return "pattern"
	case KindRange:
		return "range"
	case KindText:
		return "text"
	case KindAbsent:
		return "absent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TextField is the pseudo-field carried by full-text clauses
const TextField = "$text"

// Fields accepted by the builder, keyed to the match kinds they support
var recognized = map[string][]Kind{
	core.FieldLevel:            {KindEqual, KindAbsent},
	core.FieldMessage:          {KindEqual, KindPattern, KindAbsent},
	core.FieldResourceID:       {KindEqual, KindAbsent},
	core.FieldTraceID:          {KindEqual, KindAbsent},
	core.FieldSpanID:           {KindEqual, KindAbsent},
	core.FieldCommit:           {KindEqual, KindAbsent},
	core.FieldParentResourceID: {KindEqual, KindAbsent},
	core.FieldTimestamp:        {KindRange},
	TextField:                  {KindText},
}

// Clause is one predicate on one field
type Clause struct {
	Field string
	Kind  Kind

	Value   string         // KindEqual
	Pattern string         // KindPattern, as given
	re      *regexp.Regexp // KindPattern, compiled case-insensitive
	reErr   error          // KindPattern, set when Go's engine cannot compile Pattern
	From    time.Time      // KindRange, inclusive
	To      time.Time      // KindRange, inclusive
	Text    TextQuery      // KindText
}

// Filter is an AND-composition of clauses over log records
type Filter struct {
	clauses []Clause
	err     error
}

// New creates an empty filter, which matches every record
func New() *Filter {
	return &Filter{}
}

// Equal adds an exact equality clause
func (f *Filter) Equal(field, value string) *Filter {
	return f.add(Clause{Field: field, Kind: KindEqual, Value: value})
}

// Absent adds a clause matching records where the field is unset
func (f *Filter) Absent(field string) *Filter {
	return f.add(Clause{Field: field, Kind: KindAbsent})
}

// Pattern adds a case-insensitive regular expression clause. A pattern Go's regexp
// cannot compile is kept for backends with their own engine; see LocalErr.
func (f *Filter) Pattern(field, expr string) *Filter {
	c := Clause{Field: field, Kind: KindPattern, Pattern: expr}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		c.reErr = fmt.Errorf("%w: pattern %q: %v", core.ErrInvalidQuery, expr, err)
	} else {
		c.re = re
	}
	return f.add(c)
}

// Range adds an inclusive time range clause
func (f *Filter) Range(field string, from, to time.Time) *Filter {
	return f.add(Clause{Field: field, Kind: KindRange, From: from, To: to})
}

// Text adds a full-text search clause
func (f *Filter) Text(search string) *Filter {
	return f.add(Clause{Field: TextField, Kind: KindText, Text: ParseText(search)})
}

func (f *Filter) add(c Clause) *Filter {
	kinds, ok := recognized[c.Field]
	if !ok {
		if f.err == nil {
			f.err = fmt.Errorf("%w: unrecognized field %q", core.ErrInvalidQuery, c.Field)
		}
		return f
	}

	supported := false
	for _, k := range kinds {
		if k == c.Kind {
			supported = true
			break
		}
	}
	if !supported {
		if f.err == nil {
			f.err = fmt.Errorf("%w: %s match not supported on %q", core.ErrInvalidQuery, c.Kind, c.Field)
		}
		return f
	}

	f.clauses = append(f.clauses, c)
	return f
}

// Err returns the first error recorded while building
func (f *Filter) Err() error {
	return f.err
}

// LocalErr returns Err, or the first pattern that cannot be evaluated in process by Match
func (f *Filter) LocalErr() error {
	if f.err != nil {
		return f.err
	}
	for i := range f.clauses {
		if f.clauses[i].reErr != nil {
			return f.clauses[i].reErr
		}
	}
	return nil
}

// Clauses returns the clauses in insertion order
func (f *Filter) Clauses() []Clause {
	out := make([]Clause, len(f.clauses))
	copy(out, f.clauses)
	return out
}

// Len returns the clause count
func (f *Filter) Len() int {
	return len(f.clauses)
}

// Match evaluates the filter against a record. All clauses must match.
func (f *Filter) Match(r *core.LogRecord) bool {
	for i := range f.clauses {
		if !f.clauses[i].Match(r) {
			return false
		}
	}
	return true
}

// Match evaluates a single clause against a record
func (c *Clause) Match(r *core.LogRecord) bool {
	switch c.Kind {
	case KindEqual:
		// Empty values are never stored, so an empty value matches nothing
		v, set := r.FieldValue(c.Field)
		return set && v == c.Value

	case KindAbsent:
		_, set := r.FieldValue(c.Field)
		return !set

	case KindPattern:
		v, set := r.FieldValue(c.Field)
		if !set || c.re == nil {
			return false
		}
		return c.re.MatchString(v)

	case KindRange:
		ts := r.Timestamp
		return !ts.Before(c.From) && !ts.After(c.To)

	case KindText:
		return c.Text.Match(textOf(r))

	default:
		return false
	}
}

// Describe renders the filter for debug logging
func (f *Filter) Describe() string {
	if len(f.clauses) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(f.clauses))
	for _, c := range f.clauses {
		switch c.Kind {
		case KindEqual:
			parts = append(parts, fmt.Sprintf("%s=%q", c.Field, c.Value))
		case KindAbsent:
			parts = append(parts, fmt.Sprintf("%s:absent", c.Field))
		case KindPattern:
			parts = append(parts, fmt.Sprintf("%s~/%s/i", c.Field, c.Pattern))
		case KindRange:
			parts = append(parts, fmt.Sprintf("%s in [%s, %s]", c.Field,
				c.From.Format(time.RFC3339), c.To.Format(time.RFC3339)))
		case KindText:
			parts = append(parts, fmt.Sprintf("text(%q)", c.Text.Raw))
		}
	}
	return "{" + strings.Join(parts, " AND ") + "}"
}

func textOf(r *core.LogRecord) string {
	var sb strings.Builder
	for _, field := range core.TextFields {
		if v, ok := r.FieldValue(field); ok {
			sb.WriteString(v)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
