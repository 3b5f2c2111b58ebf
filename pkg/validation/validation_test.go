package validation

import "testing"

type sampleRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"omitempty,role"`
	DocumentType string `json:"document_type" validate:"omitempty,doctype"`
	Amount       int    `json:"amount" validate:"omitempty,gt=0"`
}

func TestValidateFieldNamesFollowJSONTags(t *testing.T) {
	errs, err := Validate(sampleRequest{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := errs["email"]; !ok {
		t.Errorf("errors keyed by %v, want json tag 'email'", errs)
	}
}

func TestCustomRules(t *testing.T) {
	errs, err := Validate(sampleRequest{
		Email:        "coach@academy.co",
		Role:         "manager",
		DocumentType: "pasaporte",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(errs["role"]) == 0 {
		t.Error("unknown role passed validation")
	}
	if len(errs["document_type"]) == 0 {
		t.Error("unknown document type passed validation")
	}

	errs, err = Validate(sampleRequest{
		Email:        "coach@academy.co",
		Role:         "collaborator",
		DocumentType: "cedula",
		Amount:       10,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if errs != nil {
		t.Errorf("valid request rejected: %v", errs)
	}
}
