package workflow

import (
	"context"
	"time"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// expiryWarningWindow is how far ahead the dashboard looks for approved
// documents about to expire.
const expiryWarningWindow = 15 * 24 * time.Hour

// ComputeDashboardStats aggregates the counters the dashboard shows. The
// shape is the same for every role but the scope differs: collaborators see
// only their own contracts and payments, staff roles see the whole system.
func (e *Engine) ComputeDashboardStats(ctx context.Context, actor Actor) (*models.DashboardStats, error) {
	if actor.Role == models.RoleCollaborator {
		return e.collaboratorStats(ctx, actor)
	}
	return e.staffStats(ctx)
}

func (e *Engine) collaboratorStats(ctx context.Context, actor Actor) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	var err error

	base := ContractFilter{CollaboratorID: &actor.ID}
	if stats.TotalContracts, err = e.store.CountContracts(ctx, base); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}

	pending := base
	pending.Statuses = []models.ContractStatus{models.ContractPendingDocuments, models.ContractApproved}
	if stats.PendingContracts, err = e.store.CountContracts(ctx, pending); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}

	active := base
	active.Statuses = []models.ContractStatus{models.ContractActive}
	if stats.ActiveContracts, err = e.store.CountContracts(ctx, active); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}

	owned, err := e.store.ListContracts(ctx, base)
	if err != nil {
		return nil, apperrors.Storage("list contracts", err)
	}
	pf := PaymentFilter{
		Statuses: []models.PaymentStatus{models.PaymentDraft, models.PaymentPendingApproval},
	}
	for _, c := range owned {
		pf.ContractIDs = append(pf.ContractIDs, c.ID)
	}
	if len(pf.ContractIDs) > 0 {
		if stats.PendingPayments, err = e.store.CountPayments(ctx, pf); err != nil {
			return nil, apperrors.Storage("count payments", err)
		}
	}
	return stats, nil
}

func (e *Engine) staffStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	var err error

	if stats.TotalContracts, err = e.store.CountContracts(ctx, ContractFilter{}); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}
	if stats.PendingContracts, err = e.store.CountContracts(ctx, ContractFilter{
		Statuses: []models.ContractStatus{models.ContractPendingDocuments, models.ContractUnderReview},
	}); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}
	if stats.ActiveContracts, err = e.store.CountContracts(ctx, ContractFilter{
		Statuses: []models.ContractStatus{models.ContractActive},
	}); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}
	if stats.PendingApprovals, err = e.store.CountContracts(ctx, ContractFilter{
		Statuses: []models.ContractStatus{models.ContractPendingApproval},
	}); err != nil {
		return nil, apperrors.Storage("count contracts", err)
	}
	if stats.PendingDocuments, err = e.store.CountDocuments(ctx, DocumentFilter{
		Statuses: []models.DocumentStatus{models.DocUploaded},
	}); err != nil {
		return nil, apperrors.Storage("count documents", err)
	}

	now := time.Now().UTC()
	until := now.Add(expiryWarningWindow)
	if stats.ExpiringDocuments, err = e.store.CountDocuments(ctx, DocumentFilter{
		Statuses:      []models.DocumentStatus{models.DocApproved},
		ExpiresAfter:  &now,
		ExpiresBefore: &until,
	}); err != nil {
		return nil, apperrors.Storage("count documents", err)
	}

	if stats.PendingPayments, err = e.store.CountPayments(ctx, PaymentFilter{
		Statuses: []models.PaymentStatus{models.PaymentDraft, models.PaymentPendingApproval},
	}); err != nil {
		return nil, apperrors.Storage("count payments", err)
	}

	collaborator := models.RoleCollaborator
	if stats.TotalCollaborators, err = e.store.CountUsers(ctx, &collaborator); err != nil {
		return nil, apperrors.Storage("count users", err)
	}
	return stats, nil
}

// Reports used by the staff views.

// ListContractsPendingSignature returns approved contracts waiting for the
// collaborator's signed copy. Admin and above.
func (e *Engine) ListContractsPendingSignature(ctx context.Context, actor Actor) ([]models.Contract, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := e.store.ListContracts(ctx, ContractFilter{
		Statuses: []models.ContractStatus{models.ContractApproved, models.ContractPendingSignature},
	})
	if err != nil {
		return nil, apperrors.Storage("list contracts", err)
	}
	return list, nil
}

// ListActiveContracts returns every ACTIVE contract. Admin and above.
func (e *Engine) ListActiveContracts(ctx context.Context, actor Actor) ([]models.Contract, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := e.store.ListContracts(ctx, ContractFilter{
		Statuses: []models.ContractStatus{models.ContractActive},
	})
	if err != nil {
		return nil, apperrors.Storage("list contracts", err)
	}
	return list, nil
}

// ListPendingPayments returns payments awaiting an approval decision.
// Accountant and above.
func (e *Engine) ListPendingPayments(ctx context.Context, actor Actor) ([]models.Payment, error) {
	if err := e.requireRole(actor, models.RoleAccountant); err != nil {
		return nil, err
	}
	list, err := e.store.ListPayments(ctx, PaymentFilter{
		Statuses: []models.PaymentStatus{models.PaymentPendingApproval},
	})
	if err != nil {
		return nil, apperrors.Storage("list payments", err)
	}
	return list, nil
}
