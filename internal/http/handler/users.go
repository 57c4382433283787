package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"stackapi/internal/authz"
	"stackapi/internal/http/middleware"
	"stackapi/internal/model"
	"stackapi/internal/resource"
	"stackapi/internal/service"
)

// Me returns the caller's own record as resolved by the auth middleware.
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := middleware.CurrentUserFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
		}
		return c.JSON(u)
	}
}

// UpdateMe applies a partial self-update. Privilege and activation flags are
// not part of the self-service shape and cannot be changed here.
func UpdateMe(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := middleware.CurrentUserFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
		}
		var req model.UserUpdateMe
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		updated, err := users.Update(c.UserContext(), u, model.UserUpdate{
			Email:    req.Email,
			FullName: req.FullName,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	}
}

// UpdateMyPassword rotates the caller's password after verifying the current
// one.
func UpdateMyPassword(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := middleware.CurrentUserFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
		}
		var req model.UpdatePassword
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if err := users.UpdatePassword(c.UserContext(), u, req); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Password updated successfully"})
	}
}

// ListUsers returns the pagination envelope of users. Superusers only.
func ListUsers(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		if err := authz.RequireElevated(caller); err != nil {
			return respondError(c, err)
		}

		skip, err := strconv.Atoi(c.Query("skip", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SKIP", "invalid skip")
		}
		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(resource.DefaultLimit)))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		page, err := users.List(c.UserContext(), resource.PageQuery{Skip: skip, Limit: limit})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	}
}

// CreateUser provisions a user with explicit flags. Superusers only.
func CreateUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		if err := authz.RequireElevated(caller); err != nil {
			return respondError(c, err)
		}
		var req model.UserCreate
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		u, err := users.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// GetUser returns a user by id, already resolved by ResolveUser. Callers may
// read themselves; reading anyone else requires elevation.
func GetUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		target := resolvedUser(c)
		if target.ID != caller.ID {
			if err := authz.RequireElevated(caller); err != nil {
				return respondError(c, err)
			}
		}
		return c.JSON(target)
	}
}

// UpdateUser applies a partial admin update to a resolved user. Superusers
// only.
func UpdateUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		if err := authz.RequireElevated(caller); err != nil {
			return respondError(c, err)
		}
		var req model.UserUpdate
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		updated, err := users.Update(c.UserContext(), resolvedUser(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteUser removes a resolved user and, through storage-level cascade, every
// item that user owned. Superusers only, and never against themselves.
func DeleteUser(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		if err := authz.RequireElevated(caller); err != nil {
			return respondError(c, err)
		}
		target := resolvedUser(c)
		if err := authz.RequireNotSelf(target.ID, caller, "Users cannot delete themselves"); err != nil {
			return respondError(c, err)
		}
		if err := users.Delete(c.UserContext(), target.ID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "User deleted successfully"})
	}
}
