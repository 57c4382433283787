package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a user-owned resource. OwnerID is set once at creation and never
// transferred; the owning user's deletion cascades to its items at the storage
// layer.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	// AttachmentKey is the object-storage key of the item's attachment, empty
	// when none has been uploaded. Not exposed; clients fetch a presigned URL.
	AttachmentKey string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetID implements authz.Identified.
func (i *Item) GetID() uuid.UUID { return i.ID }

// Owner implements authz.Owned.
func (i *Item) Owner() uuid.UUID { return i.OwnerID }

// HasAttachment reports whether an attachment object exists for the item.
func (i *Item) HasAttachment() bool { return i.AttachmentKey != "" }

// ItemCreate is the input accepted on item creation.
type ItemCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ItemUpdate is a partial update: nil fields keep their current value.
type ItemUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}
