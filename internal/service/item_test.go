package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stackapi/internal/apperr"
	"stackapi/internal/model"
	repoMocks "stackapi/internal/repository/mocks"
	"stackapi/internal/resource"
	"stackapi/internal/storage"
	storeMocks "stackapi/internal/storage/mocks"
)

func TestItemService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name       string
		in         model.ItemCreate
		setupMocks func(mRepo *repoMocks.MockItemRepository)
		wantField  string
	}{
		{
			name: "happy path sets owner and id",
			in:   model.ItemCreate{Title: "A", Description: "first"},
			setupMocks: func(mRepo *repoMocks.MockItemRepository) {
				mRepo.On("Insert", ctx, mock.MatchedBy(func(it *model.Item) bool {
					return it.ID != uuid.Nil && it.Title == "A" && it.OwnerID == owner
				})).Return(func(ctx context.Context, it *model.Item) *model.Item { return it }, nil)
			},
		},
		{
			name:       "empty title",
			in:         model.ItemCreate{},
			setupMocks: func(mRepo *repoMocks.MockItemRepository) {},
			wantField:  "title",
		},
		{
			name:       "oversized title",
			in:         model.ItemCreate{Title: strings.Repeat("x", 256)},
			setupMocks: func(mRepo *repoMocks.MockItemRepository) {},
			wantField:  "title",
		},
		{
			name:       "oversized description",
			in:         model.ItemCreate{Title: "A", Description: strings.Repeat("x", 256)},
			setupMocks: func(mRepo *repoMocks.MockItemRepository) {},
			wantField:  "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockItemRepository)
			svc := NewItemService(mRepo, nil)

			tt.setupMocks(mRepo)

			it, err := svc.Create(ctx, tt.in, owner)

			if tt.wantField != "" {
				verr, ok := apperr.IsValidation(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			} else {
				require.NoError(t, err)
				require.NotNil(t, it)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestItemService_UpdatePartialIdempotent(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockItemRepository)
	svc := NewItemService(mRepo, nil)

	existing := &model.Item{ID: uuid.New(), Title: "A", Description: "keep me", OwnerID: uuid.New()}

	mRepo.On("Update", ctx, mock.Anything).
		Return(func(ctx context.Context, it *model.Item) *model.Item { return it }, nil)

	title := "B"
	first, err := svc.Update(ctx, existing, model.ItemUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "B", first.Title)
	assert.Equal(t, "keep me", first.Description)

	second, err := svc.Update(ctx, first, model.ItemUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	mRepo.AssertExpectations(t)
}

func TestItemService_ListScoping(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("scoped list and count share the owner filter", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		svc := NewItemService(mRepo, nil)

		f := resource.OwnedBy(owner)
		mRepo.On("Count", ctx, mock.MatchedBy(func(got resource.Filter) bool {
			return got.OwnerID != nil && *got.OwnerID == owner
		})).Return(3, nil)
		mRepo.On("List", ctx, mock.MatchedBy(func(got resource.Filter) bool {
			return got.OwnerID != nil && *got.OwnerID == owner
		}), resource.PageQuery{Skip: 0, Limit: 1}).
			Return([]model.Item{{ID: uuid.New(), OwnerID: owner}}, nil)

		page, err := svc.List(ctx, f.OwnerID, resource.PageQuery{Skip: 0, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, page.Data, 1)
		assert.Equal(t, 3, page.Count)
		mRepo.AssertExpectations(t)
	})

	t.Run("nil owner lists everything", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		svc := NewItemService(mRepo, nil)

		mRepo.On("Count", ctx, resource.Filter{}).Return(5, nil)
		mRepo.On("List", ctx, resource.Filter{}, resource.PageQuery{Skip: 0, Limit: resource.DefaultLimit}).
			Return([]model.Item{}, nil)

		page, err := svc.List(ctx, nil, resource.PageQuery{})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Count)
		mRepo.AssertExpectations(t)
	})
}

func TestItemService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes attachment object first", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		it := &model.Item{ID: uuid.New(), Title: "A", AttachmentKey: "attachments/key"}
		mRepo.On("FindByID", ctx, it.ID).Return(it, nil)
		mStore.On("Delete", ctx, "attachments/key").Return(nil)
		mRepo.On("Delete", ctx, it.ID).Return(nil)

		assert.NoError(t, svc.Delete(ctx, it.ID))
		mRepo.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		id := uuid.New()
		mRepo.On("FindByID", ctx, id).Return(nil, nil)
		mRepo.On("Delete", ctx, id).Return(nil)

		assert.NoError(t, svc.Delete(ctx, id))
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("object store failure does not block the row delete", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		it := &model.Item{ID: uuid.New(), Title: "A", AttachmentKey: "attachments/key"}
		mRepo.On("FindByID", ctx, it.ID).Return(it, nil)
		mStore.On("Delete", ctx, "attachments/key").Return(errors.New("storage down"))
		mRepo.On("Delete", ctx, it.ID).Return(nil)

		assert.NoError(t, svc.Delete(ctx, it.ID))
		mRepo.AssertExpectations(t)
	})
}

func TestItemService_Attach(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		it := &model.Item{ID: uuid.New(), Title: "A"}
		r := strings.NewReader("payload")

		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "attachments/"+it.ID.String()+"/") && strings.HasSuffix(key, ".txt")
		}), r, storage.PutOptions{
			Size:        7,
			ContentType: "text/plain",
			Metadata:    map[string]string{"original-filename": "notes.txt"},
		}).Return(func(ctx context.Context, key string, _ io.Reader, _ storage.PutOptions) storage.ObjectInfo {
			return storage.ObjectInfo{Key: key, Size: 7}
		}, nil)

		mRepo.On("Update", ctx, mock.MatchedBy(func(got *model.Item) bool {
			return got.HasAttachment()
		})).Return(func(ctx context.Context, got *model.Item) *model.Item { return got }, nil)

		updated, err := svc.Attach(ctx, it, r, "notes.txt", "text/plain", 7)
		require.NoError(t, err)
		assert.True(t, updated.HasAttachment())
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		_, err := svc.Attach(ctx, &model.Item{ID: uuid.New()}, nil, "notes.txt", "text/plain", 7)
		_, ok := apperr.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("persist failure rolls back the upload", func(t *testing.T) {
		mRepo := new(repoMocks.MockItemRepository)
		mStore := new(storeMocks.MockObjectStore)
		svc := NewItemService(mRepo, mStore)

		it := &model.Item{ID: uuid.New(), Title: "A"}
		r := strings.NewReader("payload")

		mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(func(ctx context.Context, key string, _ io.Reader, _ storage.PutOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		mRepo.On("Update", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := svc.Attach(ctx, it, r, "notes.txt", "text/plain", 7)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "persist attachment key")
		assert.False(t, it.HasAttachment(), "attachment key restored on failure")
		mStore.AssertExpectations(t)
	})
}

func TestItemService_AttachmentURL(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockItemRepository)
	mStore := new(storeMocks.MockObjectStore)
	svc := NewItemService(mRepo, mStore)

	t.Run("no attachment", func(t *testing.T) {
		_, err := svc.AttachmentURL(ctx, &model.Item{ID: uuid.New()})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("presigns the stored key", func(t *testing.T) {
		it := &model.Item{ID: uuid.New(), AttachmentKey: "attachments/key"}
		mStore.On("PresignGet", ctx, "attachments/key", AttachmentURLExpiry).
			Return("https://store.example/signed", nil)

		url, err := svc.AttachmentURL(ctx, it)
		require.NoError(t, err)
		assert.Equal(t, "https://store.example/signed", url)
		mStore.AssertExpectations(t)
	})
}
