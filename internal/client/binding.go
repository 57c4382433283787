package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"stackapi/internal/resource"
)

// WriteState tracks the lifecycle of a single write call. Every write walks
// idle -> pending -> (success | error) -> idle; concurrent writes on the same
// binding each run the machine independently.
type WriteState int

const (
	WriteIdle WriteState = iota
	WritePending
	WriteSuccess
	WriteError
)

func (s WriteState) String() string {
	switch s {
	case WriteIdle:
		return "idle"
	case WritePending:
		return "pending"
	case WriteSuccess:
		return "success"
	case WriteError:
		return "error"
	default:
		return "unknown"
	}
}

type bindingSettings struct {
	name                  string
	invalidateAllOnDelete bool
	onState               func(WriteState)
}

// BindingOption customizes a Resource binding.
type BindingOption func(*bindingSettings)

// WithName sets the human name used in notification messages.
func WithName(name string) BindingOption {
	return func(s *bindingSettings) { s.name = name }
}

// DeleteInvalidatesAll makes Delete drop the entire cache instead of one key
// family. Use it for resources whose deletion cascades into others.
func DeleteInvalidatesAll() BindingOption {
	return func(s *bindingSettings) { s.invalidateAllOnDelete = true }
}

// WithStateFunc registers an observer for write state transitions.
func WithStateFunc(f func(WriteState)) BindingOption {
	return func(s *bindingSettings) { s.onState = f }
}

// Resource binds one server resource to typed reads and writes. T is the
// entity, C the create input, U the partial update input. Reads are served
// from the client cache within its staleness window; writes notify their
// outcome and invalidate after they settle, success or failure.
type Resource[T, C, U any] struct {
	client   *Client
	path     string
	settings bindingSettings
}

// NewResource binds the resource rooted at path, e.g. "/items".
func NewResource[T, C, U any](c *Client, path string, opts ...BindingOption) *Resource[T, C, U] {
	s := bindingSettings{name: "Resource"}
	for _, opt := range opts {
		opt(&s)
	}
	return &Resource[T, C, U]{client: c, path: path, settings: s}
}

// Get fetches one entity, serving a fresh cached copy when present. A
// cancelled fetch has no cache or notification side effects.
func (r *Resource[T, C, U]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	key := r.path + "/" + id.String()
	if v, ok := r.client.cache.Get(key); ok {
		if cached, ok := v.(*T); ok {
			return cached, nil
		}
	}
	var out T
	if err := r.client.do(ctx, http.MethodGet, key, nil, &out); err != nil {
		return nil, err
	}
	r.client.cache.Put(key, &out)
	return &out, nil
}

// List fetches one pagination window, cached per (skip, limit) pair.
func (r *Resource[T, C, U]) List(ctx context.Context, skip, limit int) (*resource.Page[T], error) {
	key := fmt.Sprintf("%s?skip=%d&limit=%d", r.path, skip, limit)
	if v, ok := r.client.cache.Get(key); ok {
		if cached, ok := v.(*resource.Page[T]); ok {
			return cached, nil
		}
	}
	var out resource.Page[T]
	if err := r.client.do(ctx, http.MethodGet, key, nil, &out); err != nil {
		return nil, err
	}
	r.client.cache.Put(key, &out)
	return &out, nil
}

// Create submits a new entity.
func (r *Resource[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	var out T
	err := r.write(ctx, http.MethodPost, r.path, in, &out, r.settings.name+" created successfully", false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update submits a partial update for one entity.
func (r *Resource[T, C, U]) Update(ctx context.Context, id uuid.UUID, in U) (*T, error) {
	var out T
	err := r.write(ctx, http.MethodPatch, r.path+"/"+id.String(), in, &out, r.settings.name+" updated successfully", false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one entity. With DeleteInvalidatesAll the whole cache is
// dropped afterwards.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.write(ctx, http.MethodDelete, r.path+"/"+id.String(), nil, nil, r.settings.name+" deleted successfully", r.settings.invalidateAllOnDelete)
}

// write runs one pass of the state machine. Invalidation is scheduled after
// the write settles, never before, and runs on failure as well so stale reads
// cannot outlive a rejected write.
func (r *Resource[T, C, U]) write(ctx context.Context, method, path string, body, out any, successMsg string, wide bool) error {
	r.setState(WritePending)

	err := r.client.do(ctx, method, path, body, out)
	if err != nil {
		r.client.notifier.Error(displayMessage(err))
		r.setState(WriteError)
	} else {
		r.client.notifier.Success(successMsg)
		r.setState(WriteSuccess)
	}

	if wide {
		r.client.cache.InvalidateAll()
	} else {
		r.client.cache.InvalidateFamily(r.path)
	}

	r.setState(WriteIdle)
	return err
}

func (r *Resource[T, C, U]) setState(s WriteState) {
	if r.settings.onState != nil {
		r.settings.onState(s)
	}
}

// displayMessage flattens any write failure to one notification string.
func displayMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.DisplayMessage()
	}
	return err.Error()
}
