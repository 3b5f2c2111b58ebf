package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// CreatePaymentInput opens one billing cycle (cuenta de cobro).
type CreatePaymentInput struct {
	ContractID  uuid.UUID
	Amount      float64
	PaymentDate time.Time
	Description string
}

// paymentForActor loads a payment and enforces the ownership rule through
// the owning contract.
func (e *Engine) paymentForActor(ctx context.Context, actor Actor, id uuid.UUID) (*models.Payment, *models.Contract, error) {
	p, err := e.store.GetPayment(ctx, id)
	if err != nil {
		return nil, nil, apperrors.Storage("load payment", err)
	}
	if p == nil {
		return nil, nil, apperrors.NotFound("payment not found")
	}
	c, err := e.contractForActor(ctx, actor, p.ContractID)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// CreatePayment creates a DRAFT cuenta de cobro against a contract the actor
// may bill on.
func (e *Engine) CreatePayment(ctx context.Context, actor Actor, in CreatePaymentInput) (*models.Payment, error) {
	if _, err := e.contractForActor(ctx, actor, in.ContractID); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, apperrors.Validation("amount must be positive")
	}

	now := time.Now().UTC()
	p := &models.Payment{
		ID:          uuid.New(),
		ContractID:  in.ContractID,
		Amount:      in.Amount,
		PaymentDate: in.PaymentDate,
		Description: in.Description,
		Status:      models.PaymentDraft,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.InsertPayment(ctx, p); err != nil {
		return nil, apperrors.Storage("insert payment", err)
	}

	e.dispatch(ctx, []effect{
		auditEffect{Actor: actor.ID, Action: "create_payment", ResourceType: "payment", ResourceID: p.ID},
	})
	return p, nil
}

// UploadBill attaches the bill file and submits the payment for approval.
// Allowed from DRAFT (first submission) and REJECTED (resubmission); on
// resubmission the previous rejection reason stays on the record until the
// next decision overwrites it, but the status is a plain PENDING_APPROVAL.
func (e *Engine) UploadBill(ctx context.Context, actor Actor, paymentID uuid.UUID, file FileUpload) (*models.Payment, error) {
	p, _, err := e.paymentForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if file.empty() {
		return nil, apperrors.Validation("bill file is required")
	}
	if p.Status != models.PaymentDraft && p.Status != models.PaymentRejected {
		return nil, apperrors.InvalidState("payment cannot receive a bill in current status")
	}

	fileID, err := e.vault.Store(ctx, file.Content, fmt.Sprintf("bill_%s_%s", p.ID, file.FileName), "bills")
	if err != nil {
		return nil, apperrors.Storage("store bill file", err)
	}

	next := models.PaymentPendingApproval
	ok, err := e.store.UpdatePaymentIfStatus(ctx, p.ID, p.Status, models.PaymentPatch{
		Status:     &next,
		BillFileID: &fileID,
	})
	if err != nil {
		return nil, apperrors.Storage("update payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("payment cannot receive a bill in current status")
	}
	p.Status = next
	p.BillFileID = &fileID

	effects := e.notifyRole(ctx, models.RoleAccountant,
		"Nueva Cuenta de Cobro",
		fmt.Sprintf("Cuenta de cobro por $%.2f requiere aprobación", p.Amount),
		"payment_approval_needed",
		"Nueva Cuenta de Cobro - SportsAdmin",
		fmt.Sprintf("<h2>Cuenta de Cobro Pendiente</h2><p>Una cuenta de cobro por <strong>$%.2f</strong> requiere su aprobación.</p>", p.Amount),
	)
	effects = append(effects, auditEffect{
		Actor: actor.ID, Action: "upload_bill", ResourceType: "payment", ResourceID: p.ID,
		Details: map[string]any{"file_id": fileID},
	})
	e.dispatch(ctx, effects)
	return p, nil
}

// ApprovePayment approves a submitted cuenta de cobro. The approval clears
// any rejection markers from a previous cycle, so exactly one decision is
// visible at a time.
func (e *Engine) ApprovePayment(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.Payment, error) {
	if err := e.requireRole(actor, e.cfg.Payments.ApprovalMinRole); err != nil {
		return nil, err
	}
	p, c, err := e.paymentForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPendingApproval {
		return nil, apperrors.InvalidState("payment is not pending approval")
	}

	next := models.PaymentApproved
	approver := actor.ID
	patch := models.PaymentPatch{
		Status:         &next,
		ApprovedBy:     &approver,
		ClearRejection: true,
	}
	ok, err := e.store.UpdatePaymentIfStatus(ctx, p.ID, models.PaymentPendingApproval, patch)
	if err != nil {
		return nil, apperrors.Storage("update payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("payment is not pending approval")
	}
	patch.Apply(p)

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID:       c.CollaboratorID,
			Title:        "Cuenta de Cobro Aprobada",
			Message:      fmt.Sprintf("Su cuenta de cobro por $%.2f ha sido aprobada", p.Amount),
			Kind:         "payment_approved",
			EmailSubject: "Cuenta de Cobro Aprobada - SportsAdmin",
			EmailBody:    fmt.Sprintf("<h2>Cuenta de Cobro Aprobada</h2><p>Su cuenta de cobro por <strong>$%.2f</strong> ha sido aprobada.</p>", p.Amount),
		},
		auditEffect{Actor: actor.ID, Action: "approve_payment", ResourceType: "payment", ResourceID: p.ID},
	})
	return p, nil
}

// RejectPayment rejects a submitted cuenta de cobro with a mandatory reason,
// clearing any approval markers so the collaborator can fix and resubmit.
func (e *Engine) RejectPayment(ctx context.Context, actor Actor, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if err := e.requireRole(actor, e.cfg.Payments.ApprovalMinRole); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperrors.Validation("a rejection reason is required")
	}
	p, c, err := e.paymentForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPendingApproval {
		return nil, apperrors.InvalidState("payment is not pending approval")
	}

	next := models.PaymentRejected
	rejector := actor.ID
	patch := models.PaymentPatch{
		Status:          &next,
		RejectedBy:      &rejector,
		RejectionReason: &reason,
		ClearApproval:   true,
	}
	ok, err := e.store.UpdatePaymentIfStatus(ctx, p.ID, models.PaymentPendingApproval, patch)
	if err != nil {
		return nil, apperrors.Storage("update payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("payment is not pending approval")
	}
	patch.Apply(p)

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID:  c.CollaboratorID,
			Title:   "Cuenta de Cobro Rechazada",
			Message: fmt.Sprintf("Su cuenta de cobro por $%.2f ha sido rechazada. Motivo: %s", p.Amount, reason),
			Kind:    "payment_rejected",
		},
		auditEffect{
			Actor: actor.ID, Action: "reject_payment", ResourceType: "payment", ResourceID: p.ID,
			Details: map[string]any{"reason": reason},
		},
	})
	return p, nil
}

// ConfirmPayment marks an approved payment as PAID. The voucher file is
// mandatory and stored before the status changes.
func (e *Engine) ConfirmPayment(ctx context.Context, actor Actor, paymentID uuid.UUID, file FileUpload) (*models.Payment, error) {
	if err := e.requireRole(actor, e.cfg.Payments.ApprovalMinRole); err != nil {
		return nil, err
	}
	p, c, err := e.paymentForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if file.empty() {
		return nil, apperrors.Validation("payment voucher file is required")
	}
	if p.Status != models.PaymentApproved {
		return nil, apperrors.InvalidState("payment is not approved")
	}

	fileID, err := e.vault.Store(ctx, file.Content, fmt.Sprintf("voucher_%s_%s", p.ID, file.FileName), "vouchers")
	if err != nil {
		return nil, apperrors.Storage("store voucher file", err)
	}

	next := models.PaymentPaid
	confirmer := actor.ID
	patch := models.PaymentPatch{
		Status:        &next,
		VoucherFileID: &fileID,
		ConfirmedBy:   &confirmer,
	}
	ok, err := e.store.UpdatePaymentIfStatus(ctx, p.ID, models.PaymentApproved, patch)
	if err != nil {
		return nil, apperrors.Storage("update payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("payment is not approved")
	}
	patch.Apply(p)

	e.dispatch(ctx, []effect{
		notifyEffect{
			UserID:       c.CollaboratorID,
			Title:        "Pago Realizado",
			Message:      fmt.Sprintf("El pago de $%.2f ha sido procesado. Puede descargar su comprobante.", p.Amount),
			Kind:         "payment_confirmed",
			EmailSubject: "Pago Procesado - SportsAdmin",
			EmailBody:    fmt.Sprintf("<h2>Pago Procesado</h2><p>El pago de <strong>$%.2f</strong> ha sido procesado exitosamente.</p><p>Puede descargar su comprobante en el sistema.</p>", p.Amount),
		},
		auditEffect{
			Actor: actor.ID, Action: "confirm_payment", ResourceType: "payment", ResourceID: p.ID,
			Details: map[string]any{"voucher_id": fileID},
		},
	})
	return p, nil
}

// CancelPayment aborts a cuenta de cobro that has not been decided yet.
func (e *Engine) CancelPayment(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.Payment, error) {
	p, _, err := e.paymentForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentDraft && p.Status != models.PaymentPendingApproval {
		return nil, apperrors.InvalidState("payment can no longer be cancelled")
	}

	next := models.PaymentCancelled
	ok, err := e.store.UpdatePaymentIfStatus(ctx, p.ID, p.Status, models.PaymentPatch{Status: &next})
	if err != nil {
		return nil, apperrors.Storage("update payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("payment can no longer be cancelled")
	}
	p.Status = next

	e.dispatch(ctx, []effect{
		auditEffect{Actor: actor.ID, Action: "cancel_payment", ResourceType: "payment", ResourceID: p.ID},
	})
	return p, nil
}
