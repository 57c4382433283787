// Package service contains the application services. Each one wires an entity
// definition into the generic resource service and adds domain behavior on
// top (credentials for users, attachments for items).
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stackapi/internal/apperr"
	"stackapi/internal/auth"
	"stackapi/internal/model"
	"stackapi/internal/repository"
	"stackapi/internal/resource"
)

// UserService defines the use cases for managing identities.
type UserService interface {
	// Get returns the user or (nil, nil) when absent.
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail returns the user with the given email or (nil, nil).
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// List returns the pagination envelope of all users.
	List(ctx context.Context, pq resource.PageQuery) (*resource.Page[model.User], error)

	// Create persists a new user with a hashed password.
	Create(ctx context.Context, in model.UserCreate) (*model.User, error)

	// Register creates a standard active user from an open signup.
	Register(ctx context.Context, in model.UserRegister) (*model.User, error)

	// Update applies a partial update, rehashing the password when present.
	Update(ctx context.Context, existing *model.User, in model.UserUpdate) (*model.User, error)

	// UpdatePassword verifies the current password and sets the new one.
	UpdatePassword(ctx context.Context, existing *model.User, in model.UpdatePassword) error

	// Authenticate returns the user for valid credentials, (nil, nil) otherwise.
	Authenticate(ctx context.Context, email, password string) (*model.User, error)

	// Delete removes a user; owned items go with it at the storage layer.
	// Deleting a nonexistent id is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error

	// EnsureSuperuser creates the bootstrap superuser when absent.
	EnsureSuperuser(ctx context.Context, email, password string) error
}

type userService struct {
	res  *resource.Service[model.User, model.UserCreate, model.UserUpdate]
	repo repository.UserRepository
}

// NewUserService constructs a UserService over the given repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		res:  resource.NewService(userDefinition(), repo),
		repo: repo,
	}
}

func userDefinition() resource.Definition[model.User, model.UserCreate, model.UserUpdate] {
	return resource.Definition[model.User, model.UserCreate, model.UserUpdate]{
		Name: "User",
		New: func(in model.UserCreate) (*model.User, error) {
			if err := validateEmail(in.Email); err != nil {
				return nil, err
			}
			if err := validatePassword(in.Password); err != nil {
				return nil, err
			}
			if err := validateFullName(in.FullName); err != nil {
				return nil, err
			}
			salt, err := auth.NewSalt()
			if err != nil {
				return nil, apperr.Internal(fmt.Errorf("generate salt: %w", err))
			}
			u := &model.User{
				ID:           uuid.New(),
				Email:        strings.ToLower(in.Email),
				FullName:     in.FullName,
				IsActive:     true,
				PasswordHash: auth.HashPassword([]byte(in.Password), salt),
				PasswordSalt: salt,
				CreatedAt:    time.Now().UTC(),
			}
			if in.IsActive != nil {
				u.IsActive = *in.IsActive
			}
			if in.IsSuperuser != nil {
				u.IsSuperuser = *in.IsSuperuser
			}
			return u, nil
		},
		Apply: func(u *model.User, in model.UserUpdate) error {
			if in.Email != nil {
				if err := validateEmail(*in.Email); err != nil {
					return err
				}
				u.Email = strings.ToLower(*in.Email)
			}
			if in.Password != nil {
				if err := validatePassword(*in.Password); err != nil {
					return err
				}
				salt, err := auth.NewSalt()
				if err != nil {
					return apperr.Internal(fmt.Errorf("generate salt: %w", err))
				}
				u.PasswordHash = auth.HashPassword([]byte(*in.Password), salt)
				u.PasswordSalt = salt
			}
			if in.FullName != nil {
				if err := validateFullName(*in.FullName); err != nil {
					return err
				}
				u.FullName = *in.FullName
			}
			if in.IsActive != nil {
				u.IsActive = *in.IsActive
			}
			if in.IsSuperuser != nil {
				u.IsSuperuser = *in.IsSuperuser
			}
			return nil
		},
	}
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Invalid("email", "must not be empty")
	}
	if len(email) > 255 {
		return apperr.Invalid("email", "must be at most 255 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return apperr.Invalid("email", "is not a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Invalid("password", "must be at least 8 characters")
	}
	if len(password) > 128 {
		return apperr.Invalid("password", "must be at most 128 characters")
	}
	return nil
}

func validateFullName(name string) error {
	if len(name) > 255 {
		return apperr.Invalid("full_name", "must be at most 255 characters")
	}
	return nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.res.Get(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(email))
}

func (s *userService) List(ctx context.Context, pq resource.PageQuery) (*resource.Page[model.User], error) {
	return s.res.List(ctx, resource.Filter{}, pq)
}

func (s *userService) Create(ctx context.Context, in model.UserCreate) (*model.User, error) {
	return s.res.Create(ctx, in, nil)
}

func (s *userService) Register(ctx context.Context, in model.UserRegister) (*model.User, error) {
	return s.res.Create(ctx, model.UserCreate{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
	}, nil)
}

func (s *userService) Update(ctx context.Context, existing *model.User, in model.UserUpdate) (*model.User, error) {
	return s.res.Update(ctx, existing, in)
}

func (s *userService) UpdatePassword(ctx context.Context, existing *model.User, in model.UpdatePassword) error {
	if !auth.VerifyPassword([]byte(in.CurrentPassword), existing.PasswordSalt, existing.PasswordHash) {
		return apperr.Conflict("Incorrect password")
	}
	if in.CurrentPassword == in.NewPassword {
		return apperr.Conflict("New password cannot be the same as the current one")
	}
	newPassword := in.NewPassword
	_, err := s.res.Update(ctx, existing, model.UserUpdate{Password: &newPassword})
	return err
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.VerifyPassword([]byte(password), u.PasswordSalt, u.PasswordHash) {
		// hide whether the account exists on a wrong password
		return nil, nil
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.res.Delete(ctx, id)
}

func (s *userService) EnsureSuperuser(ctx context.Context, email, password string) error {
	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	superuser := true
	_, err = s.Create(ctx, model.UserCreate{
		Email:       email,
		Password:    password,
		IsSuperuser: &superuser,
	})
	return err
}
