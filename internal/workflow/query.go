package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// Read-side operations. Collaborators only ever see their own contracts,
// documents and payments; higher roles see everything.

// GetContract returns a single contract, ownership-scoped.
func (e *Engine) GetContract(ctx context.Context, actor Actor, id uuid.UUID) (*models.Contract, error) {
	return e.contractForActor(ctx, actor, id)
}

// ListContracts lists contracts, optionally filtered by status and
// collaborator. For collaborators the collaborator filter is forced to
// themselves.
func (e *Engine) ListContracts(ctx context.Context, actor Actor, f ContractFilter) ([]models.Contract, error) {
	if actor.Role == models.RoleCollaborator {
		f.CollaboratorID = &actor.ID
	}
	list, err := e.store.ListContracts(ctx, f)
	if err != nil {
		return nil, apperrors.Storage("list contracts", err)
	}
	return list, nil
}

// ListContractDocuments lists the documents of one contract.
func (e *Engine) ListContractDocuments(ctx context.Context, actor Actor, contractID uuid.UUID) ([]models.Document, error) {
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.ListDocuments(ctx, DocumentFilter{ContractID: &c.ID})
	if err != nil {
		return nil, apperrors.Storage("list documents", err)
	}
	return docs, nil
}

// ListPayments lists payments, optionally by contract and status, scoped to
// the collaborator's own contracts when applicable.
func (e *Engine) ListPayments(ctx context.Context, actor Actor, f PaymentFilter) ([]models.Payment, error) {
	if actor.Role == models.RoleCollaborator {
		if f.ContractID != nil {
			if _, err := e.contractForActor(ctx, actor, *f.ContractID); err != nil {
				return nil, err
			}
		} else {
			owned, err := e.store.ListContracts(ctx, ContractFilter{CollaboratorID: &actor.ID})
			if err != nil {
				return nil, apperrors.Storage("list contracts", err)
			}
			f.ContractIDs = make([]uuid.UUID, 0, len(owned))
			for _, c := range owned {
				f.ContractIDs = append(f.ContractIDs, c.ID)
			}
		}
	}
	list, err := e.store.ListPayments(ctx, f)
	if err != nil {
		return nil, apperrors.Storage("list payments", err)
	}
	return list, nil
}

// RetrieveContractFile returns the unsigned or signed contract document
// bytes, ownership-scoped.
func (e *Engine) RetrieveContractFile(ctx context.Context, actor Actor, contractID uuid.UUID, signed bool) ([]byte, error) {
	c, err := e.contractForActor(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}
	fileID := c.ContractFileID
	if signed {
		fileID = c.SignedFileID
	}
	if fileID == nil {
		return nil, apperrors.NotFound("contract has no such file")
	}
	data, err := e.vault.Retrieve(ctx, *fileID)
	if err != nil {
		return nil, apperrors.Storage("retrieve file", err)
	}
	return data, nil
}

// RetrieveDocumentFile returns the stored bytes of an onboarding document,
// ownership-scoped through the owning contract.
func (e *Engine) RetrieveDocumentFile(ctx context.Context, actor Actor, documentID uuid.UUID) ([]byte, error) {
	d, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.Storage("load document", err)
	}
	if d == nil {
		return nil, apperrors.NotFound("document not found")
	}
	if _, err := e.contractForActor(ctx, actor, d.ContractID); err != nil {
		return nil, err
	}
	data, err := e.vault.Retrieve(ctx, d.FileID)
	if err != nil {
		return nil, apperrors.Storage("retrieve file", err)
	}
	return data, nil
}

// ListNotifications returns the actor's latest notifications.
func (e *Engine) ListNotifications(ctx context.Context, actor Actor, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := e.store.ListNotifications(ctx, actor.ID, limit)
	if err != nil {
		return nil, apperrors.Storage("list notifications", err)
	}
	return list, nil
}

// MarkNotificationRead flags one of the actor's notifications as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, actor Actor, id uuid.UUID) error {
	ok, err := e.store.MarkNotificationRead(ctx, id, actor.ID)
	if err != nil {
		return apperrors.Storage("update notification", err)
	}
	if !ok {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

// ListUsers lists accounts, optionally by role. Admin and above only.
func (e *Engine) ListUsers(ctx context.Context, actor Actor, role *models.Role) ([]models.User, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := e.store.ListUsers(ctx, role)
	if err != nil {
		return nil, apperrors.Storage("list users", err)
	}
	return list, nil
}

// GetUser returns one account.
func (e *Engine) GetUser(ctx context.Context, actor Actor, id uuid.UUID) (*models.User, error) {
	if actor.Role == models.RoleCollaborator && actor.ID != id {
		return nil, apperrors.Unauthorized("access denied")
	}
	u, err := e.store.GetUser(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("load user", err)
	}
	if u == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return u, nil
}
