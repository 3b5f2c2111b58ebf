package workflow

import "github.com/cristian138/th-academy/pkg/models"

// RequiredDocumentState is one row of the completeness report.
type RequiredDocumentState struct {
	DocumentType models.DocumentType   `json:"document_type"`
	Present      bool                  `json:"present"`
	Status       models.DocumentStatus `json:"status"`
}

// Completeness is the result of evaluating a contract's document set against
// the configured catalog.
type Completeness struct {
	Required            []RequiredDocumentState `json:"required"`
	AllRequiredPresent  bool                    `json:"all_required_present"`
	AllRequiredApproved bool                    `json:"all_required_approved"`
	// CanAdvanceContract currently mirrors AllRequiredApproved; kept separate
	// so extra gating conditions (expiry checks) can be added without
	// touching callers.
	CanAdvanceContract bool `json:"can_advance_contract"`
}

// EvaluateCompleteness computes, for each required type, presence and status,
// plus the aggregate flags. Pure and idempotent: same snapshot in, same
// result out. Callers decide what to do with it.
func EvaluateCompleteness(docs []models.Document, required []models.DocumentType) Completeness {
	byType := make(map[models.DocumentType]models.Document, len(docs))
	for _, d := range docs {
		byType[d.DocumentType] = d
	}

	out := Completeness{
		Required:            make([]RequiredDocumentState, 0, len(required)),
		AllRequiredPresent:  true,
		AllRequiredApproved: true,
	}
	for _, t := range required {
		state := RequiredDocumentState{DocumentType: t, Status: models.DocPending}
		if d, ok := byType[t]; ok {
			state.Present = true
			state.Status = d.Status
		} else {
			out.AllRequiredPresent = false
		}
		if state.Status != models.DocApproved {
			out.AllRequiredApproved = false
		}
		out.Required = append(out.Required, state)
	}
	out.CanAdvanceContract = out.AllRequiredApproved
	return out
}
