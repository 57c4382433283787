package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stackapi/internal/apperr"
	"stackapi/internal/authz"
	"stackapi/internal/model"
	"stackapi/internal/service"
)

const (
	// CallerLocalKey stores the authz.Caller resolved from the bearer token.
	CallerLocalKey = "caller"
	// CurrentUserLocalKey stores the full user record of the caller.
	CurrentUserLocalKey = "current_user"
)

// TokenVerifier validates a bearer token and returns its subject user ID.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Auth authenticates the request from its Authorization header and stores the
// caller identity in context locals. Inactive users are rejected before any
// handler runs. Credential validation itself lives in the token manager; this
// middleware only resolves the subject.
func Auth(verifier TokenVerifier, users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		const prefix = "Bearer "
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, prefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}
		id, err := verifier.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}

		u, err := users.Get(c.UserContext(), id)
		if err != nil {
			return apperr.Internal(err)
		}
		if u == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}
		caller := authz.Caller{ID: u.ID, IsSuperuser: u.IsSuperuser, IsActive: u.IsActive}
		if err := authz.RequireActive(caller); err != nil {
			return err
		}

		c.Locals(CallerLocalKey, caller)
		c.Locals(CurrentUserLocalKey, u)

		return c.Next()
	}
}

// CallerFromCtx extracts the caller stored by Auth.
func CallerFromCtx(c *fiber.Ctx) (authz.Caller, bool) {
	caller, ok := c.Locals(CallerLocalKey).(authz.Caller)
	return caller, ok
}

// CurrentUserFromCtx extracts the caller's full user record stored by Auth.
func CurrentUserFromCtx(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(CurrentUserLocalKey).(*model.User)
	return u, ok
}
