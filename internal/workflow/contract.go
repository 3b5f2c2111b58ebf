package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// FileUpload is the raw file payload attached to upload-and-transition
// operations. Content is opaque; no validation beyond non-emptiness.
type FileUpload struct {
	Content  []byte
	FileName string
}

func (f FileUpload) empty() bool { return len(f.Content) == 0 }

// CreateContractInput carries the fields a legal representative provides.
type CreateContractInput struct {
	CollaboratorID    uuid.UUID
	ContractType      models.ContractType
	Title             string
	Description       string
	StartDate         time.Time
	EndDate           *time.Time
	MonthlyPayment    *float64
	PaymentPerSession *float64
	Notes             string
}

func (e *Engine) requireRole(actor Actor, required models.Role) error {
	if !actor.Role.AtLeast(required) {
		return apperrors.Unauthorized("insufficient permissions")
	}
	return nil
}

// contractForActor loads a contract and enforces the ownership rule: a
// collaborator may only touch their own contracts, any higher role may touch
// all of them.
func (e *Engine) contractForActor(ctx context.Context, actor Actor, id uuid.UUID) (*models.Contract, error) {
	c, err := e.store.GetContract(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("load contract", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("contract not found")
	}
	if actor.Role == models.RoleCollaborator && c.CollaboratorID != actor.ID {
		return nil, apperrors.Unauthorized("access denied")
	}
	return c, nil
}

// CreateContract opens a new contract for an active collaborator. Initial
// status is PENDING_DOCUMENTS; the collaborator is notified.
func (e *Engine) CreateContract(ctx context.Context, actor Actor, in CreateContractInput) (*models.Contract, error) {
	if err := e.requireRole(actor, models.RoleLegalRep); err != nil {
		return nil, err
	}

	collab, err := e.store.GetUser(ctx, in.CollaboratorID)
	if err != nil {
		return nil, apperrors.Storage("load collaborator", err)
	}
	if collab == nil || collab.Role != models.RoleCollaborator {
		return nil, apperrors.NotFound("collaborator not found")
	}
	if !collab.IsActive {
		return nil, apperrors.Validation("collaborator is inactive")
	}

	// Monetary terms must match the contract type: monthly rate for
	// continuous service, per-session rate for events, never both.
	switch in.ContractType {
	case models.ContractService:
		if in.MonthlyPayment == nil || in.PaymentPerSession != nil {
			return nil, apperrors.Validation("service contracts require monthly_payment and no payment_per_session")
		}
	case models.ContractEvent:
		if in.PaymentPerSession == nil || in.MonthlyPayment != nil {
			return nil, apperrors.Validation("event contracts require payment_per_session and no monthly_payment")
		}
	default:
		return nil, apperrors.Validation("unknown contract type")
	}

	now := time.Now().UTC()
	c := &models.Contract{
		ID:                uuid.New(),
		CollaboratorID:    in.CollaboratorID,
		ContractType:      in.ContractType,
		Title:             in.Title,
		Description:       in.Description,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		MonthlyPayment:    in.MonthlyPayment,
		PaymentPerSession: in.PaymentPerSession,
		Notes:             in.Notes,
		Status:            models.ContractPendingDocuments,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.store.InsertContract(ctx, c); err != nil {
		return nil, apperrors.Storage("insert contract", err)
	}

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID: c.CollaboratorID,
			Title:  "Nuevo Contrato Creado",
			Message: fmt.Sprintf("Se ha creado un nuevo contrato: %s. Por favor cargue los documentos requeridos.",
				c.Title),
			Kind:         "contract_created",
			EmailSubject: "Nuevo Contrato Creado - SportsAdmin",
			EmailBody: fmt.Sprintf("<h2>Nuevo Contrato</h2><p>Se ha creado un nuevo contrato: <strong>%s</strong></p><p>Por favor revise los detalles en el sistema.</p>",
				c.Title),
		},
		auditEffect{
			Actor: actor.ID, Action: "create_contract", ResourceType: "contract", ResourceID: c.ID,
			Details: map[string]any{"collaborator_id": c.CollaboratorID.String()},
		},
	})
	return c, nil
}

// ReviewContract moves a contract from UNDER_REVIEW to PENDING_APPROVAL and
// notifies every legal representative.
func (e *Engine) ReviewContract(ctx context.Context, actor Actor, contractID uuid.UUID) (*models.Contract, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.ContractUnderReview {
		return nil, apperrors.InvalidState("contract is not under review")
	}

	next := models.ContractPendingApproval
	ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, models.ContractUnderReview, models.ContractPatch{Status: &next})
	if err != nil {
		return nil, apperrors.Storage("update contract", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("contract is not under review")
	}
	c.Status = next

	effects := e.notifyRole(ctx, models.RoleLegalRep,
		"Contrato Pendiente de Aprobación",
		fmt.Sprintf("El contrato %s requiere su aprobación", c.Title),
		"contract_pending_approval",
		"Contrato Pendiente de Aprobación - SportsAdmin",
		fmt.Sprintf("<h2>Contrato Pendiente</h2><p>El contrato <strong>%s</strong> requiere su aprobación.</p>", c.Title),
	)
	effects = append(effects, auditEffect{
		Actor: actor.ID, Action: "review_contract", ResourceType: "contract", ResourceID: c.ID,
	})
	e.dispatch(ctx, effects)
	return c, nil
}

// ApproveContract approves a PENDING_APPROVAL contract. The unsigned contract
// file is mandatory and stored before any status change: approval without a
// file fails outright, and a vault failure leaves the contract untouched.
func (e *Engine) ApproveContract(ctx context.Context, actor Actor, contractID uuid.UUID, file FileUpload) (*models.Contract, error) {
	if err := e.requireRole(actor, models.RoleLegalRep); err != nil {
		return nil, err
	}
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	if file.empty() {
		return nil, apperrors.Validation("contract document file is required")
	}
	if c.Status != models.ContractPendingApproval {
		return nil, apperrors.InvalidState("contract is not pending approval")
	}

	fileID, err := e.vault.Store(ctx, file.Content, fmt.Sprintf("contract_%s_%s", c.ID, file.FileName), "contracts")
	if err != nil {
		return nil, apperrors.Storage("store contract file", err)
	}

	next := models.ContractApproved
	approver := actor.ID
	ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, models.ContractPendingApproval, models.ContractPatch{
		Status:         &next,
		ApprovedBy:     &approver,
		ContractFileID: &fileID,
	})
	if err != nil {
		return nil, apperrors.Storage("update contract", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("contract is not pending approval")
	}
	c.Status = next
	c.ApprovedBy = &approver
	c.ContractFileID = &fileID

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID: c.CollaboratorID,
			Title:  "Contrato Aprobado",
			Message: fmt.Sprintf("Su contrato %s ha sido aprobado. Por favor descargue, firme y cargue el documento firmado.",
				c.Title),
			Kind:         "contract_approved",
			EmailSubject: "Contrato Aprobado - SportsAdmin",
			EmailBody: fmt.Sprintf("<h2>Contrato Aprobado</h2><p>Su contrato <strong>%s</strong> ha sido aprobado.</p><p>Por favor descargue, firme y cargue el documento firmado en el sistema.</p>",
				c.Title),
		},
		auditEffect{
			Actor: actor.ID, Action: "approve_contract", ResourceType: "contract", ResourceID: c.ID,
			Details: map[string]any{"file_id": fileID},
		},
	})
	return c, nil
}

// UploadSignedContract attaches the collaborator-signed document and
// activates the contract. Allowed only from APPROVED or PENDING_SIGNATURE.
func (e *Engine) UploadSignedContract(ctx context.Context, actor Actor, contractID uuid.UUID, file FileUpload) (*models.Contract, error) {
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	if file.empty() {
		return nil, apperrors.Validation("signed contract file is required")
	}
	if c.Status != models.ContractApproved && c.Status != models.ContractPendingSignature {
		return nil, apperrors.InvalidState("contract cannot be signed in current status")
	}

	fileID, err := e.vault.Store(ctx, file.Content, fmt.Sprintf("signed_%s_%s", c.ID, file.FileName), "contracts")
	if err != nil {
		return nil, apperrors.Storage("store signed contract file", err)
	}

	next := models.ContractActive
	ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, c.Status, models.ContractPatch{
		Status:       &next,
		SignedFileID: &fileID,
	})
	if err != nil {
		return nil, apperrors.Storage("update contract", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("contract cannot be signed in current status")
	}
	c.Status = next
	c.SignedFileID = &fileID

	e.dispatch(ctx, []effect{
		auditEffect{
			Actor: actor.ID, Action: "upload_signed_contract", ResourceType: "contract", ResourceID: c.ID,
			Details: map[string]any{"file_id": fileID},
		},
	})
	return c, nil
}

// CancelContract aborts a contract from any non-terminal state.
func (e *Engine) CancelContract(ctx context.Context, actor Actor, contractID uuid.UUID) (*models.Contract, error) {
	if err := e.requireRole(actor, models.RoleLegalRep); err != nil {
		return nil, err
	}
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, apperrors.InvalidState("contract is already in a terminal status")
	}

	next := models.ContractCancelled
	ok, err := e.store.UpdateContractIfStatus(ctx, c.ID, c.Status, models.ContractPatch{Status: &next})
	if err != nil {
		return nil, apperrors.Storage("update contract", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("contract changed status concurrently")
	}
	c.Status = next

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID:  c.CollaboratorID,
			Title:   "Contrato Cancelado",
			Message: fmt.Sprintf("El contrato %s ha sido cancelado.", c.Title),
			Kind:    "contract_cancelled",
		},
		auditEffect{
			Actor: actor.ID, Action: "cancel_contract", ResourceType: "contract", ResourceID: c.ID,
		},
	})
	return c, nil
}

// GetContractDocumentStatus evaluates the required-document completeness of a
// contract. Read-only; the collaborator must own the contract.
func (e *Engine) GetContractDocumentStatus(ctx context.Context, actor Actor, contractID uuid.UUID) (*Completeness, error) {
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.ListDocuments(ctx, DocumentFilter{ContractID: &c.ID})
	if err != nil {
		return nil, apperrors.Storage("list documents", err)
	}
	result := EvaluateCompleteness(docs, e.cfg.Documents.Required)
	return &result, nil
}
