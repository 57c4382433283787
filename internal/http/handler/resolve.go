package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stackapi/internal/model"
	"stackapi/internal/service"
)

const (
	resolvedUserLocalKey = "resolved_user"
	resolvedItemLocalKey = "resolved_item"
)

// ResolveUser loads the user named by the :id path parameter before the
// handler runs. A malformed id is a 400 and an unknown id a 404, so handlers
// behind it always see a concrete user.
func ResolveUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		if u == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
		}
		c.Locals(resolvedUserLocalKey, u)
		return c.Next()
	}
}

// ResolveItem is the item counterpart of ResolveUser.
func ResolveItem(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		it, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		if it == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Item not found")
		}
		c.Locals(resolvedItemLocalKey, it)
		return c.Next()
	}
}

func resolvedUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(resolvedUserLocalKey).(*model.User)
	return u
}

func resolvedItem(c *fiber.Ctx) *model.Item {
	it, _ := c.Locals(resolvedItemLocalKey).(*model.Item)
	return it
}
