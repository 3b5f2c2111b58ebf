// Package dashboard exposes role-aware counters and staff report views.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/workflow"
)

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

// Stats godoc
// @Summary      Dashboard stats
// @Description  Counters scoped to the caller: collaborators see their own numbers, staff sees system totals
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.DashboardStats
// @Router       /dashboard/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.engine.ComputeDashboardStats(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Pending Signature godoc
// @Summary      Contracts pending signature
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.Contract
// @Failure      403  {object}  models.ErrorResponse
// @Router       /reports/pending-signature [get]
func (h *Handler) PendingSignature(c *fiber.Ctx) error {
	list, err := h.engine.ListContractsPendingSignature(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Active Contracts godoc
// @Summary      Active contracts
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.Contract
// @Failure      403  {object}  models.ErrorResponse
// @Router       /reports/active-contracts [get]
func (h *Handler) ActiveContracts(c *fiber.Ctx) error {
	list, err := h.engine.ListActiveContracts(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Pending Payments godoc
// @Summary      Payments awaiting approval
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.Payment
// @Failure      403  {object}  models.ErrorResponse
// @Router       /reports/pending-payments [get]
func (h *Handler) PendingPayments(c *fiber.Ctx) error {
	list, err := h.engine.ListPendingPayments(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
