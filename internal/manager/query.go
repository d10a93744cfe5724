package manager

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mongorest/internal/model"
)

// ErrBadListArg reports an unparseable page, size or sort argument.
var ErrBadListArg = errors.New("invalid list argument")

// Query translates lookup keys into a MongoDB filter:
//   - the configured id field becomes _id, coerced to ObjectID when the
//     value is a valid hex id (raw value otherwise),
//   - keys carrying the regex suffix become case-insensitive $regex
//     filters on the stripped key,
//   - slice values become $in filters,
//   - nested maps are translated recursively,
//   - scalars pass through unchanged.
//
// A nil or empty lookup yields an empty filter (match all).
func (m *Manager) Query(lookup model.Resource) bson.M {
	query := bson.M{}
	for key, value := range lookup {
		switch {
		case key == m.opts.IDField || key == "_id":
			query["_id"] = coerceObjectID(value)
		case m.isRegexField(key):
			field := strings.TrimSuffix(key, m.opts.RegexSuffix)
			query[field] = bson.M{"$regex": fmt.Sprint(value), "$options": "i"}
		default:
			query[key] = m.translate(value)
		}
	}
	return query
}

func (m *Manager) translate(value any) any {
	switch v := value.(type) {
	case model.Resource:
		return m.Query(v)
	case bson.M:
		return m.Query(model.Resource(v))
	case map[string]any:
		return m.Query(model.Resource(v))
	case []any:
		in := make([]any, len(v))
		for i, e := range v {
			in[i] = m.translate(e)
		}
		return bson.M{"$in": in}
	case []string:
		in := make([]any, len(v))
		for i, e := range v {
			in[i] = e
		}
		return bson.M{"$in": in}
	default:
		return value
	}
}

func (m *Manager) isRegexField(key string) bool {
	return len(key) > len(m.opts.RegexSuffix) && strings.HasSuffix(key, m.opts.RegexSuffix)
}

// coerceObjectID turns hex id strings into ObjectIDs; anything that does
// not parse is matched as-is so collections with non-ObjectID keys keep
// working.
func coerceObjectID(value any) any {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v
	case string:
		if oid, err := primitive.ObjectIDFromHex(v); err == nil {
			return oid
		}
		return v
	default:
		return value
	}
}

// SortSpec is a parsed sort option: field name plus Mongo sort order
// (1 ascending, -1 descending).
type SortSpec struct {
	Field string
	Order int
}

// ParseSort parses a "field,asc|desc" sort option, case-insensitively.
// Nil or empty input means no sort; anything that is not a two-part pair
// is an error.
func ParseSort(value any) (*SortSpec, error) {
	if value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: not a valid sort option: %v", ErrBadListArg, value)
	}
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(strings.ToLower(s), ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: not a valid sort option: %q", ErrBadListArg, s)
	}
	order := -1
	if parts[1] == "asc" {
		order = 1
	}
	return &SortSpec{Field: parts[0], Order: order}, nil
}

// popInt removes a pagination arg from the filters, accepting the numeric
// types a JSON body or query string can produce.
func popInt(filters model.Resource, key string, def int64) (int64, error) {
	value, ok := filters[key]
	if !ok {
		return def, nil
	}
	delete(filters, key)

	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: not a valid %s value: %q", ErrBadListArg, key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: not a valid %s value: %v", ErrBadListArg, key, value)
	}
}
