// Package notifications exposes the in-app notification feed.
package notifications

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/workflow"
)

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

// List Notifications godoc
// @Summary      List notifications
// @Description  Latest notifications of the authenticated user
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "max entries (default 50)"
// @Success      200  {array}  models.Notification
// @Router       /notifications [get]
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.engine.ListNotifications(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Mark Read godoc
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "notification id"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.engine.MarkNotificationRead(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
