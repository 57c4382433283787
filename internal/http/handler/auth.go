package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"stackapi/internal/auth"
	"stackapi/internal/model"
	"stackapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

// Login exchanges email and password for a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func Login(users service.UserService, tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		u, err := users.Authenticate(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		if u == nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_CREDENTIALS", "Incorrect email or password")
		}
		if !u.IsActive {
			return writeError(c, fiber.StatusBadRequest, "CONFLICT", "Inactive user")
		}

		token, exp, err := tokens.Issue(u.ID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresAt:   exp.UTC().Format(time.RFC3339),
		})
	}
}

// Signup registers a standard active user from an open request.
func Signup(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.UserRegister
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		u, err := users.Register(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}
