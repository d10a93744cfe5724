package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mongorest/internal/manager"
	"mongorest/internal/model"
)

type MockResourceManager struct {
	mock.Mock
}

func (m *MockResourceManager) Create(ctx context.Context, values model.Resource) (model.Resource, error) {
	args := m.Called(ctx, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *MockResourceManager) Retrieve(ctx context.Context, lookup model.Resource) (model.Resource, error) {
	args := m.Called(ctx, lookup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Resource), args.Error(1)
}

func (m *MockResourceManager) RetrieveAll(ctx context.Context, filters model.Resource) ([]model.Resource, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.Resource), args.Get(1).(int64), args.Error(2)
}

func (m *MockResourceManager) RetrieveList(ctx context.Context, filters model.Resource) (*manager.ListResult, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.ListResult), args.Error(1)
}

func (m *MockResourceManager) Update(ctx context.Context, filters, updates model.Resource) ([]model.Resource, error) {
	args := m.Called(ctx, filters, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Resource), args.Error(1)
}

func (m *MockResourceManager) Delete(ctx context.Context, lookup model.Resource) (int64, error) {
	args := m.Called(ctx, lookup)
	return args.Get(0).(int64), args.Error(1)
}
