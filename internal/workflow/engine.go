// Package workflow implements the contracting state machines: contracts,
// onboarding documents and payments (cuentas de cobro). Every mutating
// operation validates the actor's role and the entity's current status, applies
// a conditional update against the store, and only then dispatches side
// effects (notifications, audit entries, email). Side-effect failures never
// roll back an entity mutation.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/config"
	"github.com/cristian138/th-academy/pkg/models"
)

/* ============================ Collaborators ============================= */

// ContractFilter narrows contract queries.
type ContractFilter struct {
	CollaboratorID *uuid.UUID
	Statuses       []models.ContractStatus
}

// DocumentFilter narrows document queries.
type DocumentFilter struct {
	ContractID    *uuid.UUID
	Type          *models.DocumentType
	Statuses      []models.DocumentStatus
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

// PaymentFilter narrows payment queries. ContractIDs scopes a collaborator
// to the contracts they own.
type PaymentFilter struct {
	ContractID  *uuid.UUID
	ContractIDs []uuid.UUID
	Statuses    []models.PaymentStatus
}

// Store is the persistence contract the engine requires. Get* methods return
// (nil, nil) when the record does not exist. UpdateXxxIfStatus performs an
// atomic compare-and-set on the status column and reports whether a row
// matched; a false return means the precondition no longer held.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, role *models.Role) ([]models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, id uuid.UUID, patch models.UserPatch) (bool, error)
	CountUsers(ctx context.Context, role *models.Role) (int64, error)

	GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListContracts(ctx context.Context, f ContractFilter) ([]models.Contract, error)
	InsertContract(ctx context.Context, c *models.Contract) error
	UpdateContractIfStatus(ctx context.Context, id uuid.UUID, expected models.ContractStatus, patch models.ContractPatch) (bool, error)
	CountContracts(ctx context.Context, f ContractFilter) (int64, error)

	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	GetDocumentByType(ctx context.Context, contractID uuid.UUID, t models.DocumentType) (*models.Document, error)
	ListDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, error)
	InsertDocument(ctx context.Context, d *models.Document) error
	UpdateDocument(ctx context.Context, id uuid.UUID, patch models.DocumentPatch) (bool, error)
	// UpdateDocumentIfStatus applies the patch only while the row still
	// carries the observed status and file, so a concurrent re-upload
	// invalidates an in-flight decision.
	UpdateDocumentIfStatus(ctx context.Context, id uuid.UUID, expected models.DocumentStatus, expectedFileID string, patch models.DocumentPatch) (bool, error)
	CountDocuments(ctx context.Context, f DocumentFilter) (int64, error)

	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error)
	InsertPayment(ctx context.Context, p *models.Payment) error
	UpdatePaymentIfStatus(ctx context.Context, id uuid.UUID, expected models.PaymentStatus, patch models.PaymentPatch) (bool, error)
	CountPayments(ctx context.Context, f PaymentFilter) (int64, error)

	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// Vault stores and retrieves opaque byte blobs by generated id.
type Vault interface {
	Store(ctx context.Context, content []byte, name, category string) (string, error)
	Retrieve(ctx context.Context, fileID string) ([]byte, error)
}

// Notifier delivers outbound email. Best effort: the engine logs and
// swallows failures.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AuditSink appends one record per state-changing operation.
type AuditSink interface {
	Append(ctx context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]any) error
}

/* ================================ Engine ================================ */

// Actor identifies who invokes an operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// ActorFrom builds an Actor from a loaded user.
func ActorFrom(u *models.User) Actor { return Actor{ID: u.ID, Role: u.Role} }

// Engine orchestrates the three coupled state machines.
type Engine struct {
	store    Store
	vault    Vault
	notifier Notifier
	audit    AuditSink
	cfg      *config.Config
	log      *slog.Logger
}

func New(store Store, vault Vault, notifier Notifier, audit AuditSink, cfg *config.Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, vault: vault, notifier: notifier, audit: audit, cfg: cfg, log: log}
}

/* =============================== Effects ================================ */

// Side effects are computed as values during a transition and executed by
// dispatch after the entity mutation commits, so the state machines stay
// independently testable.

type effect interface{ isEffect() }

type notifyEffect struct {
	UserID       uuid.UUID
	Title        string
	Message      string
	Kind         string
	EmailSubject string // empty: in-app notification only
	EmailBody    string
}

type auditEffect struct {
	Actor        uuid.UUID
	Action       string
	ResourceType string
	ResourceID   uuid.UUID
	Details      map[string]any
}

func (notifyEffect) isEffect() {}
func (auditEffect) isEffect()  {}

// dispatch executes effects best-effort. Notification, audit and email
// failures are logged and swallowed: they never change the caller-visible
// outcome of the transition that produced them.
func (e *Engine) dispatch(ctx context.Context, effects []effect) {
	for _, ef := range effects {
		switch ef := ef.(type) {
		case notifyEffect:
			n := &models.Notification{
				UserID:           ef.UserID,
				Title:            ef.Title,
				Message:          ef.Message,
				NotificationType: ef.Kind,
				CreatedAt:        time.Now().UTC(),
			}
			if err := e.store.InsertNotification(ctx, n); err != nil {
				e.log.Warn("notification insert failed", "user_id", ef.UserID, "type", ef.Kind, "error", err)
			}
			if ef.EmailSubject != "" {
				e.sendMail(ctx, ef.UserID, ef.EmailSubject, ef.EmailBody)
			}
		case auditEffect:
			if err := e.audit.Append(ctx, ef.Actor, ef.Action, ef.ResourceType, ef.ResourceID, ef.Details); err != nil {
				e.log.Warn("audit append failed", "action", ef.Action, "resource_id", ef.ResourceID, "error", err)
			}
		}
	}
}

// sendMail resolves the recipient address and fires the email off the
// critical path. The detached context outlives the request.
func (e *Engine) sendMail(ctx context.Context, userID uuid.UUID, subject, body string) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil || u == nil {
		e.log.Warn("email recipient lookup failed", "user_id", userID, "error", err)
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := e.notifier.Send(bg, u.Email, subject, body); err != nil {
			e.log.Warn("email delivery failed", "to", u.Email, "subject", subject, "error", err)
		}
	}()
}

// notifyRole fans out one notification (and optional email) to every user
// holding the given role.
func (e *Engine) notifyRole(ctx context.Context, role models.Role, title, message, kind, subject, body string) []effect {
	users, err := e.store.ListUsers(ctx, &role)
	if err != nil {
		e.log.Warn("role fan-out lookup failed", "role", role, "error", err)
		return nil
	}
	effects := make([]effect, 0, len(users))
	for _, u := range users {
		effects = append(effects, notifyEffect{
			UserID: u.ID, Title: title, Message: message, Kind: kind,
			EmailSubject: subject, EmailBody: body,
		})
	}
	return effects
}
