package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// Full cycle: draft, bill uploaded, approved, confirmed paid.
func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	accountant := seedUser(t, ms, models.RoleAccountant)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)

	p, err := eng.CreatePayment(ctx, ActorFrom(collab), CreatePaymentInput{
		ContractID:  c.ID,
		Amount:      750,
		PaymentDate: time.Now(),
		Description: "marzo",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != models.PaymentDraft {
		t.Fatalf("status = %s, want %s", p.Status, models.PaymentDraft)
	}

	p, err = eng.UploadBill(ctx, ActorFrom(collab), p.ID, upload("cuenta.pdf"))
	if err != nil {
		t.Fatalf("upload bill: %v", err)
	}
	if p.Status != models.PaymentPendingApproval || p.BillFileID == nil {
		t.Fatalf("submitted payment incomplete: %+v", p)
	}

	p, err = eng.ApprovePayment(ctx, ActorFrom(accountant), p.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if p.Status != models.PaymentApproved || p.ApprovedBy == nil {
		t.Fatalf("approved payment incomplete: %+v", p)
	}

	p, err = eng.ConfirmPayment(ctx, ActorFrom(accountant), p.ID, upload("comprobante.pdf"))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.Status != models.PaymentPaid || p.VoucherFileID == nil || p.ConfirmedBy == nil {
		t.Fatalf("paid payment incomplete: %+v", p)
	}

	wantActions := map[string]bool{"create_payment": false, "upload_bill": false, "approve_payment": false, "confirm_payment": false}
	for _, a := range ms.auditActions(p.ID) {
		if _, ok := wantActions[a]; ok {
			wantActions[a] = true
		}
	}
	for action, seen := range wantActions {
		if !seen {
			t.Errorf("missing audit action %s", action)
		}
	}
}

// A collaborator cannot bill on another collaborator's contract.
func TestCreatePaymentForeignContract(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	owner := seedUser(t, ms, models.RoleCollaborator)
	intruder := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, owner.ID, models.ContractActive)

	_, err := eng.CreatePayment(ctx, ActorFrom(intruder), CreatePaymentInput{
		ContractID:  c.ID,
		Amount:      100,
		PaymentDate: time.Now(),
	})
	wantKind(t, err, apperrors.KindUnauthorized)

	// No payment record and no audit trace for the attempt.
	list, _ := ms.ListPayments(ctx, PaymentFilter{ContractID: &c.ID})
	if len(list) != 0 {
		t.Fatalf("payment created despite denial: %v", list)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)

	_, err := eng.CreatePayment(ctx, ActorFrom(collab), CreatePaymentInput{
		ContractID:  c.ID,
		Amount:      0,
		PaymentDate: time.Now(),
	})
	wantKind(t, err, apperrors.KindValidationFailed)
}

func TestRejectPaymentRequiresReason(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	accountant := seedUser(t, ms, models.RoleAccountant)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)
	p := seedPayment(t, ms, c.ID, models.PaymentPendingApproval)

	_, err := eng.RejectPayment(ctx, ActorFrom(accountant), p.ID, "")
	wantKind(t, err, apperrors.KindValidationFailed)

	got, _ := ms.GetPayment(ctx, p.ID)
	if got.Status != models.PaymentPendingApproval {
		t.Errorf("status changed to %s on failed rejection", got.Status)
	}
}

// Reject, resubmit, approve: the rejection reason survives the resubmission
// and is cleared by the approval, so exactly one decision is visible.
func TestRejectResubmitApproveCycle(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	accountant := seedUser(t, ms, models.RoleAccountant)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)
	p := seedPayment(t, ms, c.ID, models.PaymentPendingApproval)

	rejected, err := eng.RejectPayment(ctx, ActorFrom(accountant), p.ID, "falta el soporte")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.PaymentRejected || rejected.RejectedBy == nil {
		t.Fatalf("rejected payment incomplete: %+v", rejected)
	}

	// The collaborator sees the reason verbatim.
	found := false
	for _, n := range ms.notificationsFor(collab.ID) {
		if n.Title == "Cuenta de Cobro Rechazada" && strings.Contains(n.Message, "Motivo: falta el soporte") {
			found = true
		}
	}
	if !found {
		t.Fatal("rejection notification with reason missing")
	}

	resubmitted, err := eng.UploadBill(ctx, ActorFrom(collab), p.ID, upload("cuenta_v2.pdf"))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.Status != models.PaymentPendingApproval {
		t.Fatalf("status = %s, want %s", resubmitted.Status, models.PaymentPendingApproval)
	}
	// The old reason stays on the record until the next decision.
	got, _ := ms.GetPayment(ctx, p.ID)
	if got.RejectionReason != "falta el soporte" {
		t.Errorf("rejection reason = %q, want it preserved through resubmission", got.RejectionReason)
	}

	approved, err := eng.ApprovePayment(ctx, ActorFrom(accountant), p.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovedBy == nil || approved.RejectedBy != nil || approved.RejectionReason != "" {
		t.Errorf("approval left stale rejection markers: %+v", approved)
	}
}

func TestPaymentRoleGuards(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)
	p := seedPayment(t, ms, c.ID, models.PaymentPendingApproval)

	// Collaborators rank below the configured approval role.
	_, err := eng.ApprovePayment(ctx, ActorFrom(collab), p.ID)
	wantKind(t, err, apperrors.KindUnauthorized)
	_, err = eng.RejectPayment(ctx, ActorFrom(collab), p.ID, "x")
	wantKind(t, err, apperrors.KindUnauthorized)
	_, err = eng.ConfirmPayment(ctx, ActorFrom(collab), p.ID, upload("v.pdf"))
	wantKind(t, err, apperrors.KindUnauthorized)

	// Superadmin subsumes the accountant requirement.
	super := seedUser(t, ms, models.RoleSuperadmin)
	if _, err := eng.ApprovePayment(ctx, ActorFrom(super), p.ID); err != nil {
		t.Fatalf("superadmin approve: %v", err)
	}
}

func TestConfirmPaymentGuards(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	accountant := seedUser(t, ms, models.RoleAccountant)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)

	// Voucher file is mandatory.
	approved := seedPayment(t, ms, c.ID, models.PaymentApproved)
	_, err := eng.ConfirmPayment(ctx, ActorFrom(accountant), approved.ID, FileUpload{})
	wantKind(t, err, apperrors.KindValidationFailed)

	// Only approved payments can be confirmed.
	pending := seedPayment(t, ms, c.ID, models.PaymentPendingApproval)
	_, err = eng.ConfirmPayment(ctx, ActorFrom(accountant), pending.ID, upload("v.pdf"))
	wantKind(t, err, apperrors.KindInvalidState)
}

func TestUploadBillGuards(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)

	// No bill on an already-submitted payment.
	pending := seedPayment(t, ms, c.ID, models.PaymentPendingApproval)
	_, err := eng.UploadBill(ctx, ActorFrom(collab), pending.ID, upload("cuenta.pdf"))
	wantKind(t, err, apperrors.KindInvalidState)

	// File required.
	draft := seedPayment(t, ms, c.ID, models.PaymentDraft)
	_, err = eng.UploadBill(ctx, ActorFrom(collab), draft.ID, FileUpload{})
	wantKind(t, err, apperrors.KindValidationFailed)
}

func TestCancelPayment(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractActive)

	draft := seedPayment(t, ms, c.ID, models.PaymentDraft)
	if _, err := eng.CancelPayment(ctx, ActorFrom(collab), draft.ID); err != nil {
		t.Fatalf("cancel draft: %v", err)
	}

	paid := seedPayment(t, ms, c.ID, models.PaymentPaid)
	_, err := eng.CancelPayment(ctx, ActorFrom(collab), paid.ID)
	wantKind(t, err, apperrors.KindInvalidState)
}
