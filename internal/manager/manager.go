package manager

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mongorest/internal/model"
)

// Default option values; each can be overridden per manager.
const (
	DefaultIDField     = "id"
	DefaultRegexSuffix = "Regex"
	DefaultPageSize    = 10

	DefaultPageArg = "page"
	DefaultSizeArg = "size"
	DefaultSortArg = "sort"
)

// Collection is the narrow slice of *mongo.Collection the manager uses.
// *mongo.Collection satisfies it; tests substitute a mock.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

var _ Collection = (*mongo.Collection)(nil)

// Options configure how a Manager translates between REST-shaped requests
// and MongoDB documents.
type Options struct {
	// IDField is the client-facing name for Mongo's _id. Lookups under
	// this key are coerced to ObjectID when possible; serialized
	// documents have _id renamed to it.
	IDField string

	// ExcludeFields are removed from every serialized document
	// (e.g. password_hash).
	ExcludeFields []string

	// RegexSuffix marks lookup keys that carry case-insensitive regex
	// search terms: nameRegex=jo filters on name.
	RegexSuffix string

	// DefaultPageSize applies when a list request has no size arg.
	DefaultPageSize int64

	// Query arg names popped from list filters.
	PageArg string
	SizeArg string
	SortArg string
}

func (o Options) withDefaults() Options {
	if o.IDField == "" {
		o.IDField = DefaultIDField
	}
	if o.RegexSuffix == "" {
		o.RegexSuffix = DefaultRegexSuffix
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = DefaultPageSize
	}
	if o.PageArg == "" {
		o.PageArg = DefaultPageArg
	}
	if o.SizeArg == "" {
		o.SizeArg = DefaultSizeArg
	}
	if o.SortArg == "" {
		o.SortArg = DefaultSortArg
	}
	return o
}

// Manager adapts REST create/retrieve/list/update/delete calls onto one
// MongoDB collection. It holds no state besides its options and is safe
// for concurrent use.
type Manager struct {
	coll    Collection
	opts    Options
	exclude map[string]bool
}

// New creates a Manager over the given collection.
func New(coll Collection, opts Options) *Manager {
	opts = opts.withDefaults()
	exclude := make(map[string]bool, len(opts.ExcludeFields))
	for _, f := range opts.ExcludeFields {
		exclude[f] = true
	}
	return &Manager{coll: coll, opts: opts, exclude: exclude}
}

// ListResult is one page of a listing plus its navigation metadata.
type ListResult struct {
	Data  []model.Resource
	Page  model.Page
	Links model.PageLinks
}

// Create inserts a document built from the request values and returns the
// serialized stored document, including the generated id.
func (m *Manager) Create(ctx context.Context, values model.Resource) (model.Resource, error) {
	doc := make(bson.M, len(values)+1)
	for k, v := range values {
		doc[k] = v
	}
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	if res != nil && res.InsertedID != nil {
		doc["_id"] = res.InsertedID
	}
	return m.serialize(doc), nil
}

// Retrieve finds a single document matching the lookup keys. A missing
// document surfaces as the driver's mongo.ErrNoDocuments, untranslated.
func (m *Manager) Retrieve(ctx context.Context, lookup model.Resource) (model.Resource, error) {
	var doc bson.M
	if err := m.coll.FindOne(ctx, m.Query(lookup)).Decode(&doc); err != nil {
		return nil, err
	}
	return m.serialize(doc), nil
}

// RetrieveAll returns every document matching the filters, without
// pagination, along with the total count.
func (m *Manager) RetrieveAll(ctx context.Context, filters model.Resource) ([]model.Resource, int64, error) {
	query := m.Query(filters)

	count, err := m.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cur, err := m.coll.Find(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	docs, err := m.drain(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return docs, count, nil
}

// RetrieveList returns one zero-based page of documents matching the
// filters. The page, size, and sort args are read from the filters map;
// everything else is treated as a query filter.
func (m *Manager) RetrieveList(ctx context.Context, filters model.Resource) (*ListResult, error) {
	rest := make(model.Resource, len(filters))
	for k, v := range filters {
		rest[k] = v
	}

	size, err := popInt(rest, m.opts.SizeArg, m.opts.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = m.opts.DefaultPageSize
	}
	page, err := popInt(rest, m.opts.PageArg, 0)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	sortSpec, err := ParseSort(rest[m.opts.SortArg])
	if err != nil {
		return nil, err
	}
	delete(rest, m.opts.SortArg)

	query := m.Query(rest)

	count, err := m.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, err
	}
	pageCount := (count + size - 1) / size

	findOpts := options.Find().SetSkip(page * size).SetLimit(size)
	if sortSpec != nil {
		findOpts.SetSort(bson.D{{Key: sortSpec.Field, Value: sortSpec.Order}})
	}

	cur, err := m.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, err
	}
	docs, err := m.drain(ctx, cur)
	if err != nil {
		return nil, err
	}

	res := &ListResult{
		Data: docs,
		Page: model.Page{
			Size:          size,
			TotalElements: count,
			TotalPages:    pageCount,
			Number:        page,
		},
	}
	if count > size*(page+1) {
		res.Links.Next = &model.PageRef{Page: page + 1, Size: size}
	}
	if page > 0 {
		res.Links.Prev = &model.PageRef{Page: page - 1, Size: size}
		res.Links.First = &model.PageRef{Page: 0, Size: size}
	}
	if pageCount > 0 && page != pageCount-1 {
		res.Links.Last = &model.PageRef{Page: pageCount - 1, Size: size}
	}
	return res, nil
}

// Update applies the updates to every document matching the filters and
// returns the serialized updated documents. The matched ids are pinned
// before the write so documents whose filtered fields change are still
// returned.
func (m *Manager) Update(ctx context.Context, filters, updates model.Resource) ([]model.Resource, error) {
	query := m.Query(filters)

	idCur, err := m.coll.Find(ctx, query, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var ids []interface{}
	for idCur.Next(ctx) {
		var ref struct {
			ID interface{} `bson:"_id"`
		}
		if err := idCur.Decode(&ref); err != nil {
			idCur.Close(ctx)
			return nil, err
		}
		ids = append(ids, ref.ID)
	}
	if err := idCur.Err(); err != nil {
		idCur.Close(ctx)
		return nil, err
	}
	idCur.Close(ctx)

	if len(ids) == 0 {
		return []model.Resource{}, nil
	}

	set := make(bson.M, len(updates))
	for k, v := range updates {
		// _id is immutable; drop it under either name.
		if k == "_id" || k == m.opts.IDField {
			continue
		}
		set[k] = v
	}

	idQuery := bson.M{"_id": bson.M{"$in": ids}}
	if len(set) > 0 {
		if _, err := m.coll.UpdateMany(ctx, idQuery, bson.M{"$set": set}); err != nil {
			return nil, err
		}
	}

	cur, err := m.coll.Find(ctx, idQuery)
	if err != nil {
		return nil, err
	}
	return m.drain(ctx, cur)
}

// Delete removes every document matching the lookup keys and reports how
// many were removed.
func (m *Manager) Delete(ctx context.Context, lookup model.Resource) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, m.Query(lookup))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// drain consumes a cursor into serialized resources.
func (m *Manager) drain(ctx context.Context, cur *mongo.Cursor) ([]model.Resource, error) {
	defer cur.Close(ctx)

	out := make([]model.Resource, 0)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, m.serialize(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
