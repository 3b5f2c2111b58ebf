// Package payments exposes the cuenta de cobro lifecycle.
package payments

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/workflow"
	"github.com/cristian138/th-academy/pkg/models"
	"github.com/cristian138/th-academy/pkg/validation"
)

// ===== DTOs =====

type CreatePaymentRequest struct {
	ContractID  string  `json:"contract_id" validate:"required,uuid4"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PaymentDate string  `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Description string  `json:"description" validate:"max=1000"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

func formUpload(c *fiber.Ctx, field string) (workflow.FileUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return workflow.FileUpload{}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return workflow.FileUpload{}, fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return workflow.FileUpload{}, fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	return workflow.FileUpload{Content: content, FileName: fh.Filename}, nil
}

func paramUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// Create Payment godoc
// @Summary      Create payment
// @Description  Open a draft cuenta de cobro against a contract
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreatePaymentRequest  true  "Payment payload"
// @Success      201  {object}  models.Payment
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse  "not the contract owner"
// @Router       /payments [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	contractID, _ := uuid.Parse(in.ContractID)
	paymentDate, _ := time.Parse("2006-01-02", in.PaymentDate)

	p, err := h.engine.CreatePayment(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), workflow.CreatePaymentInput{
		ContractID:  contractID,
		Amount:      in.Amount,
		PaymentDate: paymentDate,
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// List Payments godoc
// @Summary      List payments
// @Description  Collaborators see payments of their own contracts, staff sees all
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        contract_id  query  string  false  "contract filter"
// @Param        status       query  string  false  "status filter"
// @Success      200  {array}  models.Payment
// @Router       /payments [get]
func (h *Handler) List(c *fiber.Ctx) error {
	var f workflow.PaymentFilter
	if v := c.Query("contract_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid contract_id")
		}
		f.ContractID = &id
	}
	if v := c.Query("status"); v != "" {
		f.Statuses = []models.PaymentStatus{models.PaymentStatus(v)}
	}
	list, err := h.engine.ListPayments(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), f)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Upload Bill godoc
// @Summary      Upload bill
// @Description  Attach the bill file (multipart field "file") and submit for approval; allowed from draft and rejected
// @Tags         payments
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "payment id"
// @Param        file  formData  file    true  "bill file"
// @Success      200  {object}  models.Payment
// @Failure      400  {object}  models.ErrorResponse  "file missing"
// @Failure      409  {object}  models.ErrorResponse
// @Router       /payments/{id}/bill [post]
func (h *Handler) UploadBill(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return err
	}
	file, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	p, err := h.engine.UploadBill(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, file)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Approve Payment godoc
// @Summary      Approve payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "payment id"
// @Success      200  {object}  models.Payment
// @Failure      403  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "not pending approval"
// @Router       /payments/{id}/approve [post]
func (h *Handler) Approve(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return err
	}
	p, err := h.engine.ApprovePayment(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Reject Payment godoc
// @Summary      Reject payment
// @Description  Reject with a mandatory reason; the collaborator may fix and resubmit
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "payment id"
// @Param        payload  body  RejectPaymentRequest  true  "Rejection reason"
// @Success      200  {object}  models.Payment
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /payments/{id}/reject [post]
func (h *Handler) Reject(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return err
	}
	var in RejectPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	p, err := h.engine.RejectPayment(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, strings.TrimSpace(in.Reason))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Confirm Payment godoc
// @Summary      Confirm payment
// @Description  Mark an approved payment as paid, attaching the voucher (multipart field "file")
// @Tags         payments
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "payment id"
// @Param        file  formData  file    true  "payment voucher"
// @Success      200  {object}  models.Payment
// @Failure      400  {object}  models.ErrorResponse  "file missing"
// @Failure      409  {object}  models.ErrorResponse  "not approved"
// @Router       /payments/{id}/confirm [post]
func (h *Handler) Confirm(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return err
	}
	file, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	p, err := h.engine.ConfirmPayment(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, file)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Cancel Payment godoc
// @Summary      Cancel payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "payment id"
// @Success      200  {object}  models.Payment
// @Failure      409  {object}  models.ErrorResponse
// @Router       /payments/{id}/cancel [post]
func (h *Handler) Cancel(c *fiber.Ctx) error {
	id, err := paramUUID(c)
	if err != nil {
		return err
	}
	p, err := h.engine.CancelPayment(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
