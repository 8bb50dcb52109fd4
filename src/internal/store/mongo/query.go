// FILE: logvault/src/internal/store/mongo/query.go
package mongo

import (
	"logvault/src/internal/filter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToBSON translates a filter into a MongoDB query document.
// Clauses on distinct fields form one document; a repeated field forces an explicit $and.
func ToBSON(f *filter.Filter) (bson.D, error) {
	if err := f.Err(); err != nil {
		return nil, err
	}

	clauses := f.Clauses()
	parts := make([]bson.E, 0, len(clauses))
	seen := make(map[string]bool, len(clauses))
	repeated := false

	for _, c := range clauses {
		e := clauseToBSON(c)
		if seen[e.Key] {
			repeated = true
		}
		seen[e.Key] = true
		parts = append(parts, e)
	}

	if !repeated {
		return bson.D(parts), nil
	}

	and := make(bson.A, 0, len(parts))
	for _, e := range parts {
		and = append(and, bson.D{e})
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

func clauseToBSON(c filter.Clause) bson.E {
	switch c.Kind {
	case filter.KindPattern:
		return bson.E{Key: c.Field, Value: primitive.Regex{Pattern: c.Pattern, Options: "i"}}
	case filter.KindRange:
		return bson.E{Key: c.Field, Value: bson.D{
			{Key: "$gte", Value: c.From},
			{Key: "$lte", Value: c.To},
		}}
	case filter.KindText:
		return bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: c.Text.Raw}}}
	case filter.KindAbsent:
		// null matches both missing and explicitly null fields
		return bson.E{Key: c.Field, Value: nil}
	default:
		return bson.E{Key: c.Field, Value: c.Value}
	}
}
