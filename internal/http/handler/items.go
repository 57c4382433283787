package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stackapi/internal/authz"
	"stackapi/internal/http/middleware"
	"stackapi/internal/model"
	"stackapi/internal/resource"
	"stackapi/internal/service"
)

// ListItems returns the caller's items in the pagination envelope. Superusers
// see every item; the count always matches the active scope.
func ListItems(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)

		skip, err := strconv.Atoi(c.Query("skip", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SKIP", "invalid skip")
		}
		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(resource.DefaultLimit)))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		var owner *uuid.UUID
		if !caller.IsSuperuser {
			id := caller.ID
			owner = &id
		}
		page, err := items.List(c.UserContext(), owner, resource.PageQuery{Skip: skip, Limit: limit})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(page)
	}
}

// CreateItem persists a new item owned by the caller.
func CreateItem(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		var req model.ItemCreate
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		it, err := items.Create(c.UserContext(), req, caller.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(it)
	}
}

// GetItem returns a resolved item to its owner or a superuser.
func GetItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		it := resolvedItem(c)
		if err := authz.RequireOwnerOrElevated(it.OwnerID, caller); err != nil {
			return respondError(c, err)
		}
		return c.JSON(it)
	}
}

// UpdateItem applies a partial update to a resolved item. Ownership never
// changes through this endpoint.
func UpdateItem(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		it := resolvedItem(c)
		if err := authz.RequireOwnerOrElevated(it.OwnerID, caller); err != nil {
			return respondError(c, err)
		}
		var req model.ItemUpdate
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		updated, err := items.Update(c.UserContext(), it, req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteItem removes a resolved item along with its stored attachment.
func DeleteItem(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		it := resolvedItem(c)
		if err := authz.RequireOwnerOrElevated(it.OwnerID, caller); err != nil {
			return respondError(c, err)
		}
		if err := items.Delete(c.UserContext(), it.ID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Item deleted successfully"})
	}
}

// UploadAttachment stores a multipart file (field name: file) as the item's
// attachment, replacing any previous one.
func UploadAttachment(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		it := resolvedItem(c)
		if err := authz.RequireOwnerOrElevated(it.OwnerID, caller); err != nil {
			return respondError(c, err)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		updated, err := items.Attach(c.UserContext(), it, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(updated)
	}
}

// GetAttachmentURL returns a time-limited download URL for the item's
// attachment.
func GetAttachmentURL(items service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := middleware.CallerFromCtx(c)
		it := resolvedItem(c)
		if err := authz.RequireOwnerOrElevated(it.OwnerID, caller); err != nil {
			return respondError(c, err)
		}
		url, err := items.AttachmentURL(c.UserContext(), it)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
