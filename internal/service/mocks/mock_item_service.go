package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"stackapi/internal/model"
	"stackapi/internal/resource"
)

type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) List(ctx context.Context, owner *uuid.UUID, pq resource.PageQuery) (*resource.Page[model.Item], error) {
	args := m.Called(ctx, owner, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Page[model.Item]), args.Error(1)
}

func (m *MockItemService) Create(ctx context.Context, in model.ItemCreate, owner uuid.UUID) (*model.Item, error) {
	args := m.Called(ctx, in, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) Update(ctx context.Context, existing *model.Item, in model.ItemUpdate) (*model.Item, error) {
	args := m.Called(ctx, existing, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemService) Attach(ctx context.Context, existing *model.Item, r io.Reader, filename, contentType string, size int64) (*model.Item, error) {
	args := m.Called(ctx, existing, r, filename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) AttachmentURL(ctx context.Context, existing *model.Item) (string, error) {
	args := m.Called(ctx, existing)
	return args.String(0), args.Error(1)
}
