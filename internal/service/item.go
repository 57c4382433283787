package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stackapi/internal/apperr"
	"stackapi/internal/model"
	"stackapi/internal/repository"
	"stackapi/internal/resource"
	"stackapi/internal/storage"
)

// AttachmentURLExpiry bounds how long a presigned download link stays valid.
const AttachmentURLExpiry = 15 * time.Minute

// ItemService defines the use cases for items and their attachments.
type ItemService interface {
	// Get returns the item or (nil, nil) when absent.
	Get(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// List returns the pagination envelope. A nil owner lists all items;
	// otherwise the page and count are both scoped to that owner.
	List(ctx context.Context, owner *uuid.UUID, pq resource.PageQuery) (*resource.Page[model.Item], error)

	// Create persists a new item owned by the given identity.
	Create(ctx context.Context, in model.ItemCreate, owner uuid.UUID) (*model.Item, error)

	// Update applies a partial update onto an already-resolved item.
	Update(ctx context.Context, existing *model.Item, in model.ItemUpdate) (*model.Item, error)

	// Delete removes an item, cleaning up its attachment object best-effort.
	// Deleting a nonexistent id is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error

	// Attach uploads an attachment for the item, replacing any previous one,
	// and rolls back the upload if persisting the key fails.
	Attach(ctx context.Context, existing *model.Item, r io.Reader, filename, contentType string, size int64) (*model.Item, error)

	// AttachmentURL returns a time-limited download URL for the item's
	// attachment.
	AttachmentURL(ctx context.Context, existing *model.Item) (string, error)
}

type itemService struct {
	res   *resource.Service[model.Item, model.ItemCreate, model.ItemUpdate]
	repo  repository.ItemRepository
	store storage.ObjectStore
}

// NewItemService constructs an ItemService. The object store may be nil when
// attachments are disabled; Attach and AttachmentURL then fail cleanly.
func NewItemService(repo repository.ItemRepository, store storage.ObjectStore) ItemService {
	return &itemService{
		res:   resource.NewService(itemDefinition(), repo),
		repo:  repo,
		store: store,
	}
}

func itemDefinition() resource.Definition[model.Item, model.ItemCreate, model.ItemUpdate] {
	return resource.Definition[model.Item, model.ItemCreate, model.ItemUpdate]{
		Name: "Item",
		New: func(in model.ItemCreate) (*model.Item, error) {
			if err := validateTitle(in.Title); err != nil {
				return nil, err
			}
			if err := validateDescription(in.Description); err != nil {
				return nil, err
			}
			return &model.Item{
				ID:          uuid.New(),
				Title:       in.Title,
				Description: in.Description,
				CreatedAt:   time.Now().UTC(),
			}, nil
		},
		Apply: func(it *model.Item, in model.ItemUpdate) error {
			if in.Title != nil {
				if err := validateTitle(*in.Title); err != nil {
					return err
				}
				it.Title = *in.Title
			}
			if in.Description != nil {
				if err := validateDescription(*in.Description); err != nil {
					return err
				}
				it.Description = *in.Description
			}
			return nil
		},
		SetOwner: func(it *model.Item, owner uuid.UUID) { it.OwnerID = owner },
	}
}

func validateTitle(title string) error {
	if title == "" {
		return apperr.Invalid("title", "must not be empty")
	}
	if len(title) > 255 {
		return apperr.Invalid("title", "must be at most 255 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > 255 {
		return apperr.Invalid("description", "must be at most 255 characters")
	}
	return nil
}

func (s *itemService) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return s.res.Get(ctx, id)
}

func (s *itemService) List(ctx context.Context, owner *uuid.UUID, pq resource.PageQuery) (*resource.Page[model.Item], error) {
	return s.res.List(ctx, resource.Filter{OwnerID: owner}, pq)
}

func (s *itemService) Create(ctx context.Context, in model.ItemCreate, owner uuid.UUID) (*model.Item, error) {
	return s.res.Create(ctx, in, &owner)
}

func (s *itemService) Update(ctx context.Context, existing *model.Item, in model.ItemUpdate) (*model.Item, error) {
	return s.res.Update(ctx, existing, in)
}

func (s *itemService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.store != nil {
		// Attachment cleanup is best-effort: the row delete proceeds even if
		// the object removal fails, so the cascade invariant is never blocked
		// by the object store.
		if it, err := s.res.Get(ctx, id); err == nil && it != nil && it.HasAttachment() {
			_ = s.store.Delete(ctx, it.AttachmentKey)
		}
	}
	return s.res.Delete(ctx, id)
}

func (s *itemService) Attach(ctx context.Context, existing *model.Item, r io.Reader, filename, contentType string, size int64) (*model.Item, error) {
	if s.store == nil {
		return nil, apperr.Conflict("attachments are not enabled")
	}
	if r == nil {
		return nil, apperr.Invalid("file", "is required")
	}

	ext := filepath.Ext(filename)
	key := fmt.Sprintf("attachments/%s/%s%s", existing.ID, uuid.New(), ext)

	info, err := s.store.Put(ctx, key, r, storage.PutOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	previous := existing.AttachmentKey
	existing.AttachmentKey = info.Key
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		existing.AttachmentKey = previous
		// Rollback: remove the freshly uploaded object
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("persist attachment key failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("persist attachment key: %w", err)
	}
	if previous != "" && previous != info.Key {
		_ = s.store.Delete(ctx, previous)
	}
	return updated, nil
}

func (s *itemService) AttachmentURL(ctx context.Context, existing *model.Item) (string, error) {
	if s.store == nil {
		return "", apperr.Conflict("attachments are not enabled")
	}
	if !existing.HasAttachment() {
		return "", apperr.NotFound("Attachment")
	}
	return s.store.PresignGet(ctx, existing.AttachmentKey, AttachmentURLExpiry)
}
