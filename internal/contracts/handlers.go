// Package contracts exposes the contract lifecycle over HTTP. All state
// transitions run through the workflow engine; handlers only parse, validate
// and serialize.
package contracts

import (
	"io"
	"mime/multipart"
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

type CreateContractRequest struct {
	CollaboratorID    string   `json:"collaborator_id" validate:"required,uuid4"`
	ContractType      string   `json:"contract_type" validate:"required,oneof=service event"`
	Title             string   `json:"title" validate:"required,max=160"`
	Description       string   `json:"description" validate:"max=2000"`
	StartDate         string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MonthlyPayment    *float64 `json:"monthly_payment" validate:"omitempty,gt=0"`
	PaymentPerSession *float64 `json:"payment_per_session" validate:"omitempty,gt=0"`
	Notes             string   `json:"notes" validate:"max=2000"`
}

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

// readUpload extracts the multipart file field into a workflow upload. A
// missing file yields a zero upload; the engine decides whether that is fatal.
func readUpload(c *fiber.Ctx, field string) (workflow.FileUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return workflow.FileUpload{}, nil
	}
	return fileFromHeader(fh)
}

func fileFromHeader(fh *multipart.FileHeader) (workflow.FileUpload, error) {
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

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// Create Contract godoc
// @Summary      Create contract
// @Description  Legal representative opens a contract for a collaborator
// @Tags         contracts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateContractRequest  true  "Contract payload"
// @Success      201  {object}  models.Contract
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse  "collaborator not found"
// @Router       /contracts [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateContractRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	collaboratorID, _ := uuid.Parse(in.CollaboratorID)
	startDate, _ := time.Parse("2006-01-02", in.StartDate)
	var endDate *time.Time
	if in.EndDate != "" {
		d, _ := time.Parse("2006-01-02", in.EndDate)
		endDate = &d
	}

	contract, err := h.engine.CreateContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), workflow.CreateContractInput{
		CollaboratorID:    collaboratorID,
		ContractType:      models.ContractType(in.ContractType),
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		StartDate:         startDate,
		EndDate:           endDate,
		MonthlyPayment:    in.MonthlyPayment,
		PaymentPerSession: in.PaymentPerSession,
		Notes:             strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

// List Contracts godoc
// @Summary      List contracts
// @Description  Collaborators see their own contracts, staff sees all
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "status filter"
// @Success      200  {array}  models.Contract
// @Router       /contracts [get]
func (h *Handler) List(c *fiber.Ctx) error {
	var f workflow.ContractFilter
	if v := c.Query("status"); v != "" {
		f.Statuses = []models.ContractStatus{models.ContractStatus(v)}
	}
	list, err := h.engine.ListContracts(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), f)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Get Contract godoc
// @Summary      Get contract
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "contract id"
// @Success      200  {object}  models.Contract
// @Failure      404  {object}  models.ErrorResponse
// @Router       /contracts/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	contract, err := h.engine.GetContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

// Review Contract godoc
// @Summary      Review contract
// @Description  Admin moves an under-review contract to pending approval
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "contract id"
// @Success      200  {object}  models.Contract
// @Failure      409  {object}  models.ErrorResponse  "not under review"
// @Router       /contracts/{id}/review [post]
func (h *Handler) Review(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	contract, err := h.engine.ReviewContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

// Approve Contract godoc
// @Summary      Approve contract
// @Description  Legal representative approves, attaching the contract document (multipart field "file")
// @Tags         contracts
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "contract id"
// @Param        file  formData  file    true  "contract document"
// @Success      200  {object}  models.Contract
// @Failure      400  {object}  models.ErrorResponse  "file missing"
// @Failure      409  {object}  models.ErrorResponse  "not pending approval"
// @Router       /contracts/{id}/approve [post]
func (h *Handler) Approve(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	file, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	contract, err := h.engine.ApproveContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, file)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

// Upload Signed Contract godoc
// @Summary      Upload signed contract
// @Description  Collaborator uploads the signed document; the contract becomes active
// @Tags         contracts
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "contract id"
// @Param        file  formData  file    true  "signed document"
// @Success      200  {object}  models.Contract
// @Failure      409  {object}  models.ErrorResponse
// @Router       /contracts/{id}/signed [post]
func (h *Handler) UploadSigned(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	file, err := readUpload(c, "file")
	if err != nil {
		return err
	}
	contract, err := h.engine.UploadSignedContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, file)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

// Cancel Contract godoc
// @Summary      Cancel contract
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "contract id"
// @Success      200  {object}  models.Contract
// @Failure      409  {object}  models.ErrorResponse  "already terminal"
// @Router       /contracts/{id}/cancel [post]
func (h *Handler) Cancel(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	contract, err := h.engine.CancelContract(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(contract)
}

// Document Status godoc
// @Summary      Contract document status
// @Description  Per-required-type completeness of the contract's documents
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "contract id"
// @Success      200  {object}  workflow.Completeness
// @Failure      404  {object}  models.ErrorResponse
// @Router       /contracts/{id}/document-status [get]
func (h *Handler) DocumentStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	status, err := h.engine.GetContractDocumentStatus(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// Download File godoc
// @Summary      Download contract file
// @Description  Retrieve the unsigned (?signed=false) or signed (?signed=true) contract document
// @Tags         contracts
// @Security     BearerAuth
// @Produce      application/octet-stream
// @Param        id      path   string  true   "contract id"
// @Param        signed  query  bool    false  "signed copy"
// @Success      200  {file}    file
// @Failure      404  {object}  models.ErrorResponse
// @Router       /contracts/{id}/file [get]
func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	signed := c.Query("signed") == "true"
	data, err := h.engine.RetrieveContractFile(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id, signed)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}
