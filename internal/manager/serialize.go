package manager

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mongorest/internal/model"
)

// serialize turns a decoded document into its JSON-ready shape: _id is
// renamed to the configured id field and rendered as a hex string,
// excluded fields are stripped, and BSON-specific values are flattened
// recursively.
func (m *Manager) serialize(doc bson.M) model.Resource {
	if doc == nil {
		return model.Resource{}
	}

	out := make(model.Resource, len(doc))
	for key, value := range doc {
		if key == "_id" {
			out[m.opts.IDField] = idString(value)
			continue
		}
		if m.exclude[key] {
			continue
		}
		out[key] = serializeValue(value)
	}
	return out
}

func idString(value any) string {
	if oid, ok := value.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func serializeValue(value any) any {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bson.M:
		return serializeMap(v)
	case map[string]any:
		return serializeMap(v)
	case model.Resource:
		return serializeMap(v)
	case bson.D:
		nested := make(map[string]any, len(v))
		for _, e := range v {
			nested[e.Key] = serializeValue(e.Value)
		}
		return nested
	case primitive.A:
		return serializeSlice(v)
	case []any:
		return serializeSlice(v)
	default:
		return value
	}
}

func serializeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, e := range in {
		out[k] = serializeValue(e)
	}
	return out
}

func serializeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, e := range in {
		out[i] = serializeValue(e)
	}
	return out
}
