package workflow

import (
	"context"
	"testing"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

func TestListContractsScoping(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	admin := seedUser(t, ms, models.RoleAdmin)
	mine := seedUser(t, ms, models.RoleCollaborator)
	other := seedUser(t, ms, models.RoleCollaborator)
	seedContract(t, ms, mine.ID, models.ContractActive)
	seedContract(t, ms, other.ID, models.ContractActive)

	own, err := eng.ListContracts(ctx, ActorFrom(mine), ContractFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].CollaboratorID != mine.ID {
		t.Fatalf("collaborator sees %d contracts, want only their own", len(own))
	}

	all, err := eng.ListContracts(ctx, ActorFrom(admin), ContractFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin sees %d contracts, want 2", len(all))
	}
}

func TestListPaymentsScoping(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	mine := seedUser(t, ms, models.RoleCollaborator)
	other := seedUser(t, ms, models.RoleCollaborator)
	own := seedContract(t, ms, mine.ID, models.ContractActive)
	foreign := seedContract(t, ms, other.ID, models.ContractActive)
	seedPayment(t, ms, own.ID, models.PaymentDraft)
	seedPayment(t, ms, foreign.ID, models.PaymentDraft)

	list, err := eng.ListPayments(ctx, ActorFrom(mine), PaymentFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ContractID != own.ID {
		t.Fatalf("collaborator sees %d payments, want only their own", len(list))
	}

	// Asking for a foreign contract explicitly is denied, not filtered.
	_, err = eng.ListPayments(ctx, ActorFrom(mine), PaymentFilter{ContractID: &foreign.ID})
	wantKind(t, err, apperrors.KindUnauthorized)
}

func TestRetrieveContractFile(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	legal := seedUser(t, ms, models.RoleLegalRep)
	collab := seedUser(t, ms, models.RoleCollaborator)
	c := seedContract(t, ms, collab.ID, models.ContractPendingApproval)

	// No file yet.
	_, err := eng.RetrieveContractFile(ctx, ActorFrom(collab), c.ID, false)
	wantKind(t, err, apperrors.KindNotFound)

	if _, err := eng.ApproveContract(ctx, ActorFrom(legal), c.ID, upload("contrato.pdf")); err != nil {
		t.Fatalf("approve: %v", err)
	}
	data, err := eng.RetrieveContractFile(ctx, ActorFrom(collab), c.ID, false)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("retrieved %q, want original bytes", data)
	}
}

func TestNotificationsFeed(t *testing.T) {
	ctx := context.Background()
	eng, ms, _ := newTestEngine(t)
	legal := seedUser(t, ms, models.RoleLegalRep)
	collab := seedUser(t, ms, models.RoleCollaborator)
	monthly := 500.0

	if _, err := eng.CreateContract(ctx, ActorFrom(legal), CreateContractInput{
		CollaboratorID: collab.ID,
		ContractType:   models.ContractService,
		Title:          "Entrenador",
		MonthlyPayment: &monthly,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := eng.ListNotifications(ctx, ActorFrom(collab), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list))
	}

	if err := eng.MarkNotificationRead(ctx, ActorFrom(collab), list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Another user cannot touch the notification.
	err = eng.MarkNotificationRead(ctx, ActorFrom(legal), list[0].ID)
	wantKind(t, err, apperrors.KindNotFound)
}
