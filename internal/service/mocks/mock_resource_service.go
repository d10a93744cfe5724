package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mongorest/internal/manager"
	"mongorest/internal/model"
	"mongorest/internal/service"
)

type MockResourceService struct {
	mock.Mock
}

func (m *MockResourceService) Create(ctx context.Context, collection string, values model.Resource) (model.Resource, error) {
	args := m.Called(ctx, collection, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *MockResourceService) Get(ctx context.Context, collection, id string) (model.Resource, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *MockResourceService) List(ctx context.Context, collection string, filters model.Resource) (*manager.ListResult, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.ListResult), args.Error(1)
}

func (m *MockResourceService) ListAll(ctx context.Context, collection string, filters model.Resource) (*service.ResourceAllResult, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResourceAllResult), args.Error(1)
}

func (m *MockResourceService) Update(ctx context.Context, collection, id string, updates model.Resource) (model.Resource, error) {
	args := m.Called(ctx, collection, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *MockResourceService) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockResourceService) Export(ctx context.Context, collection string, filters model.Resource) (*model.Export, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}
