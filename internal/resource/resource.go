// Package resource implements the generic create/read/update/delete contract
// every entity type is exposed through. A Service is parameterized by the
// entity, its create input, and its update input; all persistence goes through
// the Store collaborator, so the service itself holds no mutable state.
package resource

import (
	"context"

	"github.com/google/uuid"
)

// DefaultLimit is applied to list requests that do not specify a window.
const DefaultLimit = 100

// PageQuery holds skip/limit pagination parameters.
type PageQuery struct {
	Skip  int
	Limit int
}

// Normalize clamps the window to sane values: negative skip becomes 0 and a
// non-positive limit falls back to DefaultLimit.
func (pq PageQuery) Normalize() PageQuery {
	if pq.Skip < 0 {
		pq.Skip = 0
	}
	if pq.Limit <= 0 {
		pq.Limit = DefaultLimit
	}
	return pq
}

// Page is the pagination envelope returned by every list endpoint: the page of
// items, the total count matching the same filter, and the echoed window.
type Page[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Filter is the declarative predicate shared by List and Count. A nil OwnerID
// matches all rows; otherwise only rows owned by that identity match.
type Filter struct {
	OwnerID *uuid.UUID
}

// OwnedBy builds a filter scoped to one owner.
func OwnedBy(id uuid.UUID) Filter {
	return Filter{OwnerID: &id}
}

// Store is the storage collaborator for one entity type. Implementations are
// responsible for transactional guarantees: every call commits its own atomic
// unit of work, uniqueness constraints are enforced on Insert/Update, and
// foreign-key cascades fire on Delete.
type Store[T any] interface {
	// FindByID returns the entity or (nil, nil) when no row matches.
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)

	// List returns rows matching the filter in stable creation order, bounded
	// by the window.
	List(ctx context.Context, f Filter, pq PageQuery) ([]T, error)

	// Count returns the total number of rows matching the filter, independent
	// of any window.
	Count(ctx context.Context, f Filter) (int, error)

	// Insert persists a new entity and returns the stored row.
	Insert(ctx context.Context, e *T) (*T, error)

	// Update persists the full current state of an already-loaded entity.
	Update(ctx context.Context, e *T) (*T, error)

	// Delete removes the row by ID. Deleting a missing row is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Definition binds an entity type to its construction and mutation rules.
// New validates the create input and builds a fresh entity (including its
// generated ID); Apply merges the present fields of a partial update onto an
// existing entity. SetOwner is nil for entity types without ownership.
type Definition[T any, C any, U any] struct {
	Name     string
	New      func(in C) (*T, error)
	Apply    func(e *T, in U) error
	SetOwner func(e *T, owner uuid.UUID)
}

// Service provides the uniform CRUD operations for one entity type.
type Service[T any, C any, U any] struct {
	def   Definition[T, C, U]
	store Store[T]
}

// NewService constructs a Service from an entity definition and its store.
func NewService[T any, C any, U any](def Definition[T, C, U], store Store[T]) *Service[T, C, U] {
	return &Service[T, C, U]{def: def, store: store}
}

// Name returns the entity type name used in not-found messages.
func (s *Service[T, C, U]) Name() string { return s.def.Name }

// Get returns the entity or (nil, nil) when absent. A missing row is an
// expected outcome, not an error.
func (s *Service[T, C, U]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return s.store.FindByID(ctx, id)
}

// List returns the pagination envelope for the given filter and window. The
// count always reflects the same filter as the page so the two cannot skew.
func (s *Service[T, C, U]) List(ctx context.Context, f Filter, pq PageQuery) (*Page[T], error) {
	pq = pq.Normalize()

	count, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Data: items, Count: count, Skip: pq.Skip, Limit: pq.Limit}, nil
}

// Count returns the total number of entities matching the filter.
func (s *Service[T, C, U]) Count(ctx context.Context, f Filter) (int, error) {
	return s.store.Count(ctx, f)
}

// Create validates the input, builds a fresh entity, assigns the owner when
// the entity type declares ownership, and persists it.
func (s *Service[T, C, U]) Create(ctx context.Context, in C, owner *uuid.UUID) (*T, error) {
	e, err := s.def.New(in)
	if err != nil {
		return nil, err
	}
	if owner != nil && s.def.SetOwner != nil {
		s.def.SetOwner(e, *owner)
	}
	return s.store.Insert(ctx, e)
}

// Update applies only the present fields of in onto existing and persists the
// result. Applying the same partial input twice yields the same final state.
func (s *Service[T, C, U]) Update(ctx context.Context, existing *T, in U) (*T, error) {
	if err := s.def.Apply(existing, in); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, existing)
}

// Delete removes the entity by ID. Deleting a nonexistent ID is a no-op;
// dependent rows are removed by the storage layer's cascade.
func (s *Service[T, C, U]) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
