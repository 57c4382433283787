// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"stackapi/internal/model"
	"stackapi/internal/resource"
)

// UserRepository is the storage collaborator for users. Besides the uniform
// store contract it supports lookup by the unique email.
type UserRepository interface {
	resource.Store[model.User]

	// FindByEmail returns the user with the given email or (nil, nil).
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// ItemRepository is the storage collaborator for items. Owner scoping goes
// through the resource.Filter predicate shared by List and Count.
type ItemRepository interface {
	resource.Store[model.Item]
}
