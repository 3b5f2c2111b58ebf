package workflow

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/models"
)

func doc(t models.DocumentType, status models.DocumentStatus) models.Document {
	return models.Document{ID: uuid.New(), DocumentType: t, Status: status}
}

func TestEvaluateCompleteness(t *testing.T) {
	required := []models.DocumentType{models.DocCedula, models.DocRut}

	cases := []struct {
		name         string
		docs         []models.Document
		wantPresent  bool
		wantApproved bool
	}{
		{
			name: "no documents",
		},
		{
			name:        "all present none approved",
			docs:        []models.Document{doc(models.DocCedula, models.DocUploaded), doc(models.DocRut, models.DocUploaded)},
			wantPresent: true,
		},
		{
			name:        "one approved one rejected",
			docs:        []models.Document{doc(models.DocCedula, models.DocApproved), doc(models.DocRut, models.DocRejected)},
			wantPresent: true,
		},
		{
			name:         "all approved",
			docs:         []models.Document{doc(models.DocCedula, models.DocApproved), doc(models.DocRut, models.DocApproved)},
			wantPresent:  true,
			wantApproved: true,
		},
		{
			name:        "expired counts as present but not approved",
			docs:        []models.Document{doc(models.DocCedula, models.DocApproved), doc(models.DocRut, models.DocExpired)},
			wantPresent: true,
		},
		{
			name: "optional extras do not affect the result",
			docs: []models.Document{
				doc(models.DocCedula, models.DocApproved),
				doc(models.DocRut, models.DocApproved),
				doc(models.DocTarjetaEntrenador, models.DocRejected),
			},
			wantPresent:  true,
			wantApproved: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateCompleteness(tc.docs, required)
			if got.AllRequiredPresent != tc.wantPresent {
				t.Errorf("AllRequiredPresent = %v, want %v", got.AllRequiredPresent, tc.wantPresent)
			}
			if got.AllRequiredApproved != tc.wantApproved {
				t.Errorf("AllRequiredApproved = %v, want %v", got.AllRequiredApproved, tc.wantApproved)
			}
			if got.CanAdvanceContract != got.AllRequiredApproved {
				t.Errorf("CanAdvanceContract = %v, should mirror AllRequiredApproved", got.CanAdvanceContract)
			}
			if len(got.Required) != len(required) {
				t.Fatalf("expected %d required rows, got %d", len(required), len(got.Required))
			}
		})
	}
}

func TestEvaluateCompletenessMissingRowsArePending(t *testing.T) {
	got := EvaluateCompleteness(nil, []models.DocumentType{models.DocCedula})
	if got.Required[0].Present {
		t.Error("missing document reported as present")
	}
	if got.Required[0].Status != models.DocPending {
		t.Errorf("missing document status = %s, want %s", got.Required[0].Status, models.DocPending)
	}
}

func TestEvaluateCompletenessIsIdempotent(t *testing.T) {
	docs := []models.Document{doc(models.DocCedula, models.DocApproved), doc(models.DocRut, models.DocUploaded)}
	required := []models.DocumentType{models.DocCedula, models.DocRut}
	a := EvaluateCompleteness(docs, required)
	b := EvaluateCompleteness(docs, required)
	if a.AllRequiredPresent != b.AllRequiredPresent || a.AllRequiredApproved != b.AllRequiredApproved {
		t.Error("same snapshot produced different results")
	}
}
