package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestRoleHierarchy(t *testing.T) {
	cases := []struct {
		actor    Role
		required Role
		want     bool
	}{
		{RoleSuperadmin, RoleAdmin, true},
		{RoleSuperadmin, RoleCollaborator, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperadmin, false},
		{RoleLegalRep, RoleAdmin, false},
		{RoleLegalRep, RoleAccountant, true},
		{RoleAccountant, RoleLegalRep, false},
		{RoleCollaborator, RoleCollaborator, true},
		{Role("manager"), RoleCollaborator, false},
		{Role(""), Role(""), false},
	}
	for _, tc := range cases {
		if got := tc.actor.AtLeast(tc.required); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.actor, tc.required, got, tc.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperadmin, RoleAdmin, RoleLegalRep, RoleAccountant, RoleCollaborator} {
		if !r.Valid() {
			t.Errorf("%s reported invalid", r)
		}
	}
	if Role("boss").Valid() {
		t.Error("unknown role reported valid")
	}
}

func TestContractStatusTerminal(t *testing.T) {
	for _, s := range []ContractStatus{ContractCompleted, ContractCancelled} {
		if !s.Terminal() {
			t.Errorf("%s not terminal", s)
		}
	}
	for _, s := range []ContractStatus{ContractDraft, ContractPendingDocuments, ContractActive, ContractApproved} {
		if s.Terminal() {
			t.Errorf("%s reported terminal", s)
		}
	}
}

func TestPaymentPatchClearsOppositeDecision(t *testing.T) {
	p := &Payment{}
	approver := uuid.New()
	approved := PaymentApproved
	(PaymentPatch{Status: &approved, ApprovedBy: &approver, ClearRejection: true}).Apply(p)
	if p.ApprovedBy == nil || p.RejectedBy != nil {
		t.Fatalf("approval markers wrong: %+v", p)
	}

	rejector := uuid.New()
	reason := "incompleta"
	rejected := PaymentRejected
	(PaymentPatch{Status: &rejected, RejectedBy: &rejector, RejectionReason: &reason, ClearApproval: true}).Apply(p)
	if p.ApprovedBy != nil || p.RejectedBy == nil || p.RejectionReason != reason {
		t.Fatalf("rejection markers wrong: %+v", p)
	}

	changes := PaymentPatch{Status: &approved, ApprovedBy: &approver, ClearRejection: true}.Changes()
	if changes["rejected_by"] != nil {
		t.Error("ClearRejection did not null rejected_by")
	}
	if changes["rejection_reason"] != "" {
		t.Error("ClearRejection did not blank rejection_reason")
	}
}

func TestDocumentPatchClearReview(t *testing.T) {
	reviewer := uuid.New()
	d := &Document{ReviewedBy: &reviewer, ReviewNotes: "ok"}
	uploaded := DocUploaded
	(DocumentPatch{Status: &uploaded, ClearReview: true}).Apply(d)
	if d.ReviewedBy != nil || d.ReviewNotes != "" {
		t.Fatalf("review markers survived ClearReview: %+v", d)
	}
}
