package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/models"
)

func TestDashboardStatsStaff(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	admin := seedUser(t, ms, models.RoleAdmin)
	collabA := seedUser(t, ms, models.RoleCollaborator)
	collabB := seedUser(t, ms, models.RoleCollaborator)

	c1 := seedContract(t, ms, collabA.ID, models.ContractPendingDocuments)
	seedContract(t, ms, collabA.ID, models.ContractActive)
	seedContract(t, ms, collabB.ID, models.ContractPendingApproval)
	c4 := seedContract(t, ms, collabB.ID, models.ContractActive)

	seedPayment(t, ms, c4.ID, models.PaymentPendingApproval)
	seedPayment(t, ms, c4.ID, models.PaymentDraft)
	seedPayment(t, ms, c4.ID, models.PaymentPaid)

	soon := time.Now().Add(5 * 24 * time.Hour)
	d := models.Document{
		ContractID: c1.ID, DocumentType: models.DocAntecedentes,
		FileID: "f", Status: models.DocApproved, UploadedBy: collabA.ID, ExpiryDate: &soon,
	}
	d.ID = uuid.New()
	ms.InsertDocument(ctx, &d)

	stats, err := eng.ComputeDashboardStats(ctx, ActorFrom(admin))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalContracts != 4 {
		t.Errorf("TotalContracts = %d, want 4", stats.TotalContracts)
	}
	if stats.ActiveContracts != 2 {
		t.Errorf("ActiveContracts = %d, want 2", stats.ActiveContracts)
	}
	if stats.PendingApprovals != 1 {
		t.Errorf("PendingApprovals = %d, want 1", stats.PendingApprovals)
	}
	if stats.PendingPayments != 2 {
		t.Errorf("PendingPayments = %d, want 2", stats.PendingPayments)
	}
	if stats.ExpiringDocuments != 1 {
		t.Errorf("ExpiringDocuments = %d, want 1", stats.ExpiringDocuments)
	}
	if stats.TotalCollaborators != 2 {
		t.Errorf("TotalCollaborators = %d, want 2", stats.TotalCollaborators)
	}
}

func TestDashboardStatsCollaboratorScope(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	mine := seedUser(t, ms, models.RoleCollaborator)
	other := seedUser(t, ms, models.RoleCollaborator)

	own := seedContract(t, ms, mine.ID, models.ContractActive)
	seedContract(t, ms, mine.ID, models.ContractPendingDocuments)
	foreign := seedContract(t, ms, other.ID, models.ContractActive)

	seedPayment(t, ms, own.ID, models.PaymentDraft)
	seedPayment(t, ms, foreign.ID, models.PaymentDraft)

	stats, err := eng.ComputeDashboardStats(ctx, ActorFrom(mine))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalContracts != 2 {
		t.Errorf("TotalContracts = %d, want 2 (own only)", stats.TotalContracts)
	}
	if stats.ActiveContracts != 1 {
		t.Errorf("ActiveContracts = %d, want 1", stats.ActiveContracts)
	}
	if stats.PendingPayments != 1 {
		t.Errorf("PendingPayments = %d, want 1 (own only)", stats.PendingPayments)
	}
	if stats.TotalCollaborators != 0 {
		t.Errorf("TotalCollaborators leaked to collaborator view: %d", stats.TotalCollaborators)
	}
}
