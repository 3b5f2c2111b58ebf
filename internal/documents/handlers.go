// Package documents exposes onboarding-document upload and review.
package documents

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/workflow"
	"github.com/cristian138/th-academy/pkg/models"
	"github.com/cristian138/th-academy/pkg/validation"
)

// ===== DTOs =====

type ReviewDocumentRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes" validate:"max=1000"`
}

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

// Upload Document godoc
// @Summary      Upload document
// @Description  Collaborator uploads one onboarding document (multipart: file, document_type, optional expiry_date YYYY-MM-DD). Re-uploading the same type replaces the file and resets the review.
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "contract id"
// @Param        file           formData  file    true   "document file"
// @Param        document_type  formData  string  true   "catalog type"
// @Param        expiry_date    formData  string  false  "expiry date"
// @Success      201  {object}  models.Document
// @Failure      400  {object}  models.ErrorResponse
// @Router       /contracts/{id}/documents [post]
func (h *Handler) Upload(c *fiber.Ctx) error {
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	docType := models.DocumentType(c.FormValue("document_type"))
	var expiry *time.Time
	if v := c.FormValue("expiry_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid expiry_date")
		}
		expiry = &d
	}

	var file workflow.FileUpload
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
		}
		file = workflow.FileUpload{Content: content, FileName: fh.Filename}
	}

	doc, err := h.engine.UploadContractDocument(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), workflow.UploadDocumentInput{
		ContractID:   contractID,
		DocumentType: docType,
		File:         file,
		ExpiryDate:   expiry,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// List Documents godoc
// @Summary      List contract documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "contract id"
// @Success      200  {array}   models.Document
// @Failure      404  {object}  models.ErrorResponse
// @Router       /contracts/{id}/documents [get]
func (h *Handler) List(c *fiber.Ctx) error {
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	docs, err := h.engine.ListContractDocuments(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), contractID)
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

// Review Document godoc
// @Summary      Review document
// @Description  Admin approves or rejects an uploaded document; rejection requires notes
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "document id"
// @Param        payload  body  ReviewDocumentRequest  true  "Decision"
// @Success      200  {object}  models.Document
// @Failure      400  {object}  models.ErrorResponse  "rejection reason missing"
// @Failure      409  {object}  models.ErrorResponse  "not awaiting review"
// @Router       /documents/{id}/review [post]
func (h *Handler) Review(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var in ReviewDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	doc, err := h.engine.ReviewContractDocument(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), workflow.ReviewDocumentInput{
		DocumentID: docID,
		Approve:    in.Approve,
		Notes:      in.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// Download Document godoc
// @Summary      Download document file
// @Tags         documents
// @Security     BearerAuth
// @Produce      application/octet-stream
// @Param        id  path  string  true  "document id"
// @Success      200  {file}    file
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id}/file [get]
func (h *Handler) Download(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	data, err := h.engine.RetrieveDocumentFile(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), docID)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

// Expiring Documents godoc
// @Summary      List expiring documents
// @Description  Approved documents whose expiry date falls within the given days (default 15)
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        days  query  int  false  "window in days"
// @Success      200  {array}   models.Document
// @Failure      403  {object}  models.ErrorResponse
// @Router       /documents/expiring [get]
func (h *Handler) Expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", 15)
	if days < 1 || days > 365 {
		days = 15
	}
	docs, err := h.engine.ListExpiringDocuments(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)),
		time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	return c.JSON(docs)
}
