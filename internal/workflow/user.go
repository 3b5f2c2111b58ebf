package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/models"
)

// CreateUserInput carries a new account. The password is hashed by the
// transport layer; the engine never sees plaintext credentials.
type CreateUserInput struct {
	Email          string
	PasswordHash   string
	Name           string
	Role           models.Role
	Identification string
	Phone          string
}

// CreateUser registers a user. Admin and above only; emails are unique.
func (e *Engine) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*models.User, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperrors.Validation("unknown role")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Storage("lookup email", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("email already registered")
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:             uuid.New(),
		Email:          email,
		PasswordHash:   in.PasswordHash,
		Name:           in.Name,
		Role:           in.Role,
		Identification: in.Identification,
		Phone:          in.Phone,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.InsertUser(ctx, u); err != nil {
		// Unique index on email is the last line of defense under races.
		return nil, apperrors.Conflict("email already registered")
	}

	e.dispatch(ctx, []effect{
		auditEffect{Actor: actor.ID, Action: "create_user", ResourceType: "user", ResourceID: u.ID,
			Details: map[string]any{"role": string(u.Role)}},
	})
	return u, nil
}

// UpdateUser patches mutable profile fields. Admin and above only.
func (e *Engine) UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, patch models.UserPatch) (*models.User, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("load user", err)
	}
	if u == nil {
		return nil, apperrors.NotFound("user not found")
	}

	// Deactivation goes through DeactivateUser so the contract guard runs.
	if patch.IsActive != nil && !*patch.IsActive && u.IsActive {
		return nil, apperrors.Validation("use the deactivate operation to disable a user")
	}

	if _, err := e.store.UpdateUser(ctx, userID, patch); err != nil {
		return nil, apperrors.Storage("update user", err)
	}
	patch.Apply(u)

	e.dispatch(ctx, []effect{
		auditEffect{Actor: actor.ID, Action: "update_user", ResourceType: "user", ResourceID: u.ID},
	})
	return u, nil
}

// DeactivateUser disables an account instead of deleting it. A collaborator
// with contracts still in a non-terminal status cannot be deactivated.
func (e *Engine) DeactivateUser(ctx context.Context, actor Actor, userID uuid.UUID) (*models.User, error) {
	if err := e.requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("load user", err)
	}
	if u == nil {
		return nil, apperrors.NotFound("user not found")
	}

	if u.Role == models.RoleCollaborator {
		open, err := e.store.CountContracts(ctx, ContractFilter{
			CollaboratorID: &u.ID,
			Statuses: []models.ContractStatus{
				models.ContractDraft, models.ContractPendingDocuments,
				models.ContractUnderReview, models.ContractPendingApproval,
				models.ContractApproved, models.ContractPendingSignature,
				models.ContractActive,
			},
		})
		if err != nil {
			return nil, apperrors.Storage("count contracts", err)
		}
		if open > 0 {
			return nil, apperrors.InvalidState("collaborator has contracts in progress")
		}
	}

	inactive := false
	patch := models.UserPatch{IsActive: &inactive}
	if _, err := e.store.UpdateUser(ctx, userID, patch); err != nil {
		return nil, apperrors.Storage("update user", err)
	}
	patch.Apply(u)

	e.dispatch(ctx, []effect{
		auditEffect{Actor: actor.ID, Action: "deactivate_user", ResourceType: "user", ResourceID: u.ID},
	})
	return u, nil
}
