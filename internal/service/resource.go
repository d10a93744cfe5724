package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"mongorest/internal/manager"
	"mongorest/internal/model"
	"mongorest/internal/storage"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("resource not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrValuesRequired    = errors.New("values are required")
	ErrExportDisabled    = errors.New("export storage is not configured")
)

// ResourceManager is the CRUDL contract the service drives. It is
// satisfied by *manager.Manager.
type ResourceManager interface {
	Create(ctx context.Context, values model.Resource) (model.Resource, error)
	Retrieve(ctx context.Context, lookup model.Resource) (model.Resource, error)
	RetrieveAll(ctx context.Context, filters model.Resource) ([]model.Resource, int64, error)
	RetrieveList(ctx context.Context, filters model.Resource) (*manager.ListResult, error)
	Update(ctx context.Context, filters, updates model.Resource) ([]model.Resource, error)
	Delete(ctx context.Context, lookup model.Resource) (int64, error)
}

// ManagerFactory yields the manager bound to a collection. The service
// resolves collections lazily so new collections need no restart.
type ManagerFactory func(collection string) ResourceManager

// ResourceAllResult is the service-level DTO for unpaginated listings.
type ResourceAllResult struct {
	Items []model.Resource `json:"data"`
	Count int64            `json:"count"`
}

// ResourceService defines the use cases for exposing collections as REST
// resources.
type ResourceService interface {
	// Create stores a new document in the collection.
	Create(ctx context.Context, collection string, values model.Resource) (model.Resource, error)

	// Get returns a single document by its client-facing id.
	Get(ctx context.Context, collection, id string) (model.Resource, error)

	// List returns one page of documents plus paging metadata. The
	// filters map carries page/size/sort args and field filters alike.
	List(ctx context.Context, collection string, filters model.Resource) (*manager.ListResult, error)

	// ListAll returns every matching document without pagination.
	ListAll(ctx context.Context, collection string, filters model.Resource) (*ResourceAllResult, error)

	// Update applies the updates to the document with the given id and
	// returns the updated document.
	Update(ctx context.Context, collection, id string, updates model.Resource) (model.Resource, error)

	// Delete removes the document with the given id.
	Delete(ctx context.Context, collection, id string) error

	// Export snapshots the filtered collection as NDJSON into object
	// storage and returns a presigned download link.
	Export(ctx context.Context, collection string, filters model.Resource) (*model.Export, error)
}

// resourceService is a concrete implementation of ResourceService.
type resourceService struct {
	managers     ManagerFactory
	store        storage.Storage
	idField      string
	allowed      map[string]bool
	exportExpiry time.Duration
}

// NewResourceService constructs a ResourceService. store may be nil, in
// which case Export reports ErrExportDisabled. An empty collections list
// exposes every collection.
func NewResourceService(managers ManagerFactory, store storage.Storage, idField string, collections []string, exportExpiry time.Duration) ResourceService {
	if idField == "" {
		idField = manager.DefaultIDField
	}
	allowed := make(map[string]bool, len(collections))
	for _, c := range collections {
		allowed[c] = true
	}
	return &resourceService{
		managers:     managers,
		store:        store,
		idField:      idField,
		allowed:      allowed,
		exportExpiry: exportExpiry,
	}
}

func (s *resourceService) manager(collection string) (ResourceManager, error) {
	if collection == "" {
		return nil, ErrUnknownCollection
	}
	if len(s.allowed) > 0 && !s.allowed[collection] {
		return nil, ErrUnknownCollection
	}
	return s.managers(collection), nil
}

func (s *resourceService) Create(ctx context.Context, collection string, values model.Resource) (model.Resource, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrValuesRequired
	}
	return mgr.Create(ctx, values)
}

func (s *resourceService) Get(ctx context.Context, collection, id string) (model.Resource, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := mgr.Retrieve(ctx, model.Resource{s.idField: id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *resourceService) List(ctx context.Context, collection string, filters model.Resource) (*manager.ListResult, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	return mgr.RetrieveList(ctx, filters)
}

func (s *resourceService) ListAll(ctx context.Context, collection string, filters model.Resource) (*ResourceAllResult, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	items, count, err := mgr.RetrieveAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &ResourceAllResult{Items: items, Count: count}, nil
}

func (s *resourceService) Update(ctx context.Context, collection, id string, updates model.Resource) (model.Resource, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	docs, err := mgr.Update(ctx, model.Resource{s.idField: id}, updates)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (s *resourceService) Delete(ctx context.Context, collection, id string) error {
	mgr, err := s.manager(collection)
	if err != nil {
		return err
	}
	if id == "" {
		return ErrIDRequired
	}
	n, err := mgr.Delete(ctx, model.Resource{s.idField: id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Export streams the filtered collection into object storage as NDJSON
// and returns object info plus a presigned GET URL.
func (s *resourceService) Export(ctx context.Context, collection string, filters model.Resource) (*model.Export, error) {
	mgr, err := s.manager(collection)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	docs, count, err := mgr.RetrieveAll(ctx, filters)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
	}

	key := path.Join("exports", collection, uuid.New().String()+".ndjson")
	info, err := s.store.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        int64(buf.Len()),
		ContentType: "application/x-ndjson",
		Metadata: map[string]string{
			"collection": collection,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.store.PresignGet(ctx, key, s.exportExpiry)
	if err != nil {
		// Without a URL the object is unreachable; best-effort cleanup.
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("presign export: %w", err)
	}

	return &model.Export{
		Collection: collection,
		Key:        info.Key,
		Documents:  int(count),
		Size:       info.Size,
		URL:        url,
		ExpiresIn:  int64(s.exportExpiry.Seconds()),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
