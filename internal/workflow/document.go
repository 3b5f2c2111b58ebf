package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// UploadDocumentInput carries one onboarding document upload.
type UploadDocumentInput struct {
	ContractID   uuid.UUID
	DocumentType models.DocumentType
	File         FileUpload
	ExpiryDate   *time.Time
}

// ReviewDocumentInput is an admin's decision on an uploaded document.
type ReviewDocumentInput struct {
	DocumentID uuid.UUID
	Approve    bool
	Notes      string // mandatory reason when rejecting
}

func (e *Engine) catalogKnows(t models.DocumentType) bool {
	for _, r := range e.cfg.Documents.Required {
		if r == t {
			return true
		}
	}
	for _, o := range e.cfg.Documents.Optional {
		if o == t {
			return true
		}
	}
	return false
}

// UploadContractDocument stores the file and upserts the document record for
// (contract, type): the first upload inserts, later uploads overwrite the
// file reference and reset the review cycle. When the upload completes the
// required set by presence, the contract auto-advances from
// PENDING_DOCUMENTS to UNDER_REVIEW.
func (e *Engine) UploadContractDocument(ctx context.Context, actor Actor, in UploadDocumentInput) (*models.Document, error) {
	c, err := e.contractForActor(ctx, actor, in.ContractID)
	if err != nil {
		return nil, err
	}
	if !e.catalogKnows(in.DocumentType) {
		return nil, apperrors.Validation(fmt.Sprintf("document type %q is not in the catalog", in.DocumentType))
	}
	if in.File.empty() {
		return nil, apperrors.Validation("document file is required")
	}

	// The file write is validated before any record mutation.
	fileID, err := e.vault.Store(ctx, in.File.Content,
		fmt.Sprintf("%s_%s_%s", in.DocumentType, c.ID, in.File.FileName), "documents")
	if err != nil {
		return nil, apperrors.Storage("store document file", err)
	}

	doc, err := e.store.GetDocumentByType(ctx, c.ID, in.DocumentType)
	if err != nil {
		return nil, apperrors.Storage("load document", err)
	}

	uploaded := models.DocUploaded
	uploader := actor.ID
	if doc == nil {
		now := time.Now().UTC()
		doc = &models.Document{
			ID:           uuid.New(),
			ContractID:   c.ID,
			DocumentType: in.DocumentType,
			FileID:       fileID,
			FileName:     in.File.FileName,
			Status:       uploaded,
			UploadedBy:   uploader,
			ExpiryDate:   in.ExpiryDate,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := e.store.InsertDocument(ctx, doc); err != nil {
			return nil, apperrors.Storage("insert document", err)
		}
	} else {
		patch := models.DocumentPatch{
			Status:      &uploaded,
			FileID:      &fileID,
			FileName:    &in.File.FileName,
			UploadedBy:  &uploader,
			ExpiryDate:  in.ExpiryDate,
			ClearReview: true,
		}
		if in.ExpiryDate == nil {
			patch.ClearExpiry = true
		}
		if _, err := e.store.UpdateDocument(ctx, doc.ID, patch); err != nil {
			return nil, apperrors.Storage("update document", err)
		}
		patch.Apply(doc)
	}

	effects := e.notifyRole(ctx, models.RoleAdmin,
		"Nuevo Documento Cargado",
		fmt.Sprintf("Se ha cargado un documento: %s", in.DocumentType),
		"document_uploaded", "", "")
	effects = append(effects, auditEffect{
		Actor: actor.ID, Action: "upload_document", ResourceType: "document", ResourceID: doc.ID,
		Details: map[string]any{"contract_id": c.ID.String(), "document_type": string(in.DocumentType)},
	})

	// Presence cascade: once every required type exists (approval not
	// required yet), the contract leaves PENDING_DOCUMENTS. The status guard
	// on the conditional update keeps this idempotent under races.
	if c.Status == models.ContractPendingDocuments {
		docs, err := e.store.ListDocuments(ctx, DocumentFilter{ContractID: &c.ID})
		if err == nil {
			if EvaluateCompleteness(docs, e.cfg.Documents.Required).AllRequiredPresent {
				next := models.ContractUnderReview
				ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, models.ContractPendingDocuments,
					models.ContractPatch{Status: &next})
				if err != nil {
					e.log.Warn("presence cascade update failed", "contract_id", c.ID, "error", err)
				} else if ok {
					effects = append(effects, auditEffect{
						Actor: actor.ID, Action: "contract_documents_submitted", ResourceType: "contract", ResourceID: c.ID,
					})
				}
			}
		} else {
			e.log.Warn("presence cascade listing failed", "contract_id", c.ID, "error", err)
		}
	}

	e.dispatch(ctx, effects)
	return doc, nil
}

// ReviewContractDocument records an approve/reject decision, notifies the
// collaborator, and re-runs the completeness evaluation. When every required
// document is approved and the contract is still UNDER_REVIEW, the contract
// cascades to PENDING_APPROVAL exactly once, guarded by the contract's
// current status rather than a separate flag.
func (e *Engine) ReviewContractDocument(ctx context.Context, actor Actor, in ReviewDocumentInput) (*models.Document, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	doc, err := e.store.GetDocument(ctx, in.DocumentID)
	if err != nil {
		return nil, apperrors.Storage("load document", err)
	}
	if doc == nil {
		return nil, apperrors.NotFound("document not found")
	}
	if !in.Approve && in.Notes == "" {
		return nil, apperrors.Validation("a rejection reason is required")
	}
	if doc.Status != models.DocUploaded && doc.Status != models.DocUnderReview {
		return nil, apperrors.InvalidState("document is not awaiting review")
	}

	decided := models.DocApproved
	if !in.Approve {
		decided = models.DocRejected
	}
	reviewer := actor.ID
	patch := models.DocumentPatch{
		Status:      &decided,
		ReviewedBy:  &reviewer,
		ReviewNotes: &in.Notes,
	}
	// Conditional write keyed on the snapshot read above: if a collaborator
	// re-uploads between the read and this write, the decision must not land
	// on a file the reviewer never saw.
	ok, err := e.store.UpdateDocumentIfStatus(ctx, doc.ID, doc.Status, doc.FileID, patch)
	if err != nil {
		return nil, apperrors.Storage("update document", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("document changed while the review was in progress")
	}
	patch.Apply(doc)

	c, err := e.store.GetContract(ctx, doc.ContractID)
	if err != nil || c == nil {
		return nil, apperrors.Storage("load contract", err)
	}

	var effects []effect
	if in.Approve {
		effects = append(effects, notifyEffect{
			UserID:  c.CollaboratorID,
			Title:   "Documento Aprobado",
			Message: fmt.Sprintf("Su documento %s ha sido aprobado.", doc.DocumentType),
			Kind:    "document_reviewed",
		})
	} else {
		effects = append(effects, notifyEffect{
			UserID: c.CollaboratorID,
			Title:  "Documento Rechazado",
			Message: fmt.Sprintf("Su documento %s ha sido rechazado. Motivo: %s. Por favor cargue una nueva versión.",
				doc.DocumentType, in.Notes),
			Kind: "document_reviewed",
		})
	}
	effects = append(effects, auditEffect{
		Actor: actor.ID, Action: "review_document", ResourceType: "document", ResourceID: doc.ID,
		Details: map[string]any{"status": string(decided)},
	})

	// Approval cascade. The snapshot may be concurrently modified; the
	// conditional update below makes re-evaluation harmless.
	if in.Approve && c.Status == models.ContractUnderReview {
		docs, err := e.store.ListDocuments(ctx, DocumentFilter{ContractID: &c.ID})
		if err != nil {
			e.log.Warn("approval cascade listing failed", "contract_id", c.ID, "error", err)
		} else if EvaluateCompleteness(docs, e.cfg.Documents.Required).CanAdvanceContract {
			next := models.ContractPendingApproval
			ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, models.ContractUnderReview,
				models.ContractPatch{Status: &next})
			if err != nil {
				e.log.Warn("approval cascade update failed", "contract_id", c.ID, "error", err)
			} else if ok {
				effects = append(effects, notifyEffect{
					UserID: c.CollaboratorID,
					Title:  "Documentos Completos",
					Message: fmt.Sprintf("Todos los documentos requeridos del contrato %s han sido aprobados.",
						c.Title),
					Kind: "documents_complete",
				})
				effects = append(effects, auditEffect{
					Actor: actor.ID, Action: "contract_documents_complete", ResourceType: "contract", ResourceID: c.ID,
				})
			}
		}
	}

	e.dispatch(ctx, effects)
	return doc, nil
}

// ExpireDocuments flips approved documents whose expiry date has passed to
// EXPIRED. Meant for a scheduled sweep; returns how many were expired.
func (e *Engine) ExpireDocuments(ctx context.Context, now time.Time) (int, error) {
	approved := models.DocApproved
	docs, err := e.store.ListDocuments(ctx, DocumentFilter{
		Statuses:      []models.DocumentStatus{approved},
		ExpiresBefore: &now,
	})
	if err != nil {
		return 0, apperrors.Storage("list expiring documents", err)
	}
	expired := models.DocExpired
	n := 0
	for _, d := range docs {
		// A re-upload since the listing replaces the expiring file; skip it.
		ok, err := e.store.UpdateDocumentIfStatus(ctx, d.ID, approved, d.FileID, models.DocumentPatch{Status: &expired})
		if err != nil {
			e.log.Warn("document expiry update failed", "document_id", d.ID, "error", err)
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// ListExpiringDocuments reports approved documents expiring within the given
// window. Admin only.
func (e *Engine) ListExpiringDocuments(ctx context.Context, actor Actor, within time.Duration) ([]models.Document, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	until := now.Add(within)
	docs, err := e.store.ListDocuments(ctx, DocumentFilter{
		Statuses:      []models.DocumentStatus{models.DocApproved},
		ExpiresAfter:  &now,
		ExpiresBefore: &until,
	})
	if err != nil {
		return nil, apperrors.Storage("list documents", err)
	}
	return docs, nil
}
