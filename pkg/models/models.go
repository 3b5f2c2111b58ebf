package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system. Roles are totally ordered:
// a role can act on anything that requires a role of equal or lower rank.
type Role string

const (
	RoleSuperadmin   Role = "superadmin"
	RoleAdmin        Role = "admin"
	RoleLegalRep     Role = "legal_rep"
	RoleAccountant   Role = "accountant"
	RoleCollaborator Role = "collaborator"
)

var roleRank = map[Role]int{
	RoleSuperadmin:   5,
	RoleAdmin:        4,
	RoleLegalRep:     3,
	RoleAccountant:   2,
	RoleCollaborator: 1,
}

// Rank returns the position of the role in the hierarchy (0 for unknown roles).
func (r Role) Rank() int { return roleRank[r] }

// AtLeast reports whether the role subsumes the capability of the required
// role. Unknown roles never authorize anything.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[required]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return roleRank[r] > 0 }

// ContractType distinguishes continuous-service contracts from per-event ones.
type ContractType string

const (
	ContractService ContractType = "service"
	ContractEvent   ContractType = "event"
)

// ContractStatus defines lifecycle states for a contract.
type ContractStatus string

const (
	ContractDraft            ContractStatus = "draft"
	ContractPendingDocuments ContractStatus = "pending_documents"
	ContractUnderReview      ContractStatus = "under_review"
	ContractPendingApproval  ContractStatus = "pending_approval"
	ContractApproved         ContractStatus = "approved"
	ContractPendingSignature ContractStatus = "pending_signature"
	ContractActive           ContractStatus = "active"
	ContractCompleted        ContractStatus = "completed"
	ContractCancelled        ContractStatus = "cancelled"
)

// Terminal reports whether the contract can no longer change state.
func (s ContractStatus) Terminal() bool {
	return s == ContractCompleted || s == ContractCancelled
}

// DocumentType is the fixed catalog of onboarding document types.
type DocumentType string

const (
	DocCedula             DocumentType = "cedula"
	DocRut                DocumentType = "rut"
	DocSoportesLaborales  DocumentType = "soportes_laborales"
	DocSoportesEducativos DocumentType = "soportes_educativos"
	DocCertBancaria       DocumentType = "cert_bancaria"
	DocAntecedentes       DocumentType = "antecedentes"
	DocTarjetaEntrenador  DocumentType = "tarjeta_entrenador"
	DocHojaVida           DocumentType = "hoja_vida"
	DocPropuestaTrabajo   DocumentType = "propuesta_trabajo"
)

// AllDocumentTypes lists every type the catalog knows about.
var AllDocumentTypes = []DocumentType{
	DocCedula, DocRut, DocSoportesLaborales, DocSoportesEducativos,
	DocCertBancaria, DocAntecedentes, DocTarjetaEntrenador,
	DocHojaVida, DocPropuestaTrabajo,
}

// DefaultRequiredDocuments is the required subset used when the configuration
// does not override the catalog.
var DefaultRequiredDocuments = []DocumentType{
	DocCedula, DocRut, DocCertBancaria, DocAntecedentes,
	DocHojaVida, DocPropuestaTrabajo,
}

// DefaultOptionalDocuments complements the required subset.
var DefaultOptionalDocuments = []DocumentType{
	DocSoportesLaborales, DocSoportesEducativos, DocTarjetaEntrenador,
}

// DocumentStatus defines lifecycle states for a document.
type DocumentStatus string

const (
	DocPending     DocumentStatus = "pending" // virtual: no record yet
	DocUploaded    DocumentStatus = "uploaded"
	DocUnderReview DocumentStatus = "under_review"
	DocApproved    DocumentStatus = "approved"
	DocRejected    DocumentStatus = "rejected"
	DocExpired     DocumentStatus = "expired"
)

// PaymentStatus defines lifecycle states for a cuenta de cobro.
type PaymentStatus string

const (
	PaymentDraft           PaymentStatus = "draft"
	PaymentPendingApproval PaymentStatus = "pending_approval"
	PaymentApproved        PaymentStatus = "approved"
	PaymentPaid            PaymentStatus = "paid"
	PaymentRejected        PaymentStatus = "rejected"
	PaymentCancelled       PaymentStatus = "cancelled"
)

/* =============================== Entities =============================== */

// User represents anyone who can act on the system, from superadmin down to
// collaborator. Users are deactivated, never deleted.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Name           string    `gorm:"not null" json:"name"`
	Role           Role      `gorm:"type:varchar(20);not null" json:"role"`
	Identification string    `json:"identification,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contract belongs to exactly one collaborator and owns the document and
// payment lifecycles attached to it.
type Contract struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CollaboratorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"collaborator_id"`
	ContractType      ContractType   `gorm:"type:varchar(20);not null" json:"contract_type"`
	Title             string         `gorm:"not null" json:"title"`
	Description       string         `json:"description"`
	StartDate         time.Time      `gorm:"not null" json:"start_date"`
	EndDate           *time.Time     `json:"end_date,omitempty"`
	MonthlyPayment    *float64       `json:"monthly_payment,omitempty"`
	PaymentPerSession *float64       `json:"payment_per_session,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Status            ContractStatus `gorm:"type:varchar(30);not null;default:'pending_documents'" json:"status"`
	CreatedBy         uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	ApprovedBy        *uuid.UUID     `gorm:"type:uuid" json:"approved_by,omitempty"`
	ContractFileID    *string        `json:"contract_file_id,omitempty"` // unsigned document to be signed
	SignedFileID      *string        `json:"signed_file_id,omitempty"`   // document signed by the collaborator
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Document is an onboarding document attached to a contract. At most one
// record exists per (contract, type); re-uploads overwrite it.
type Document struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_contract_doctype,unique" json:"contract_id"`
	DocumentType DocumentType   `gorm:"type:varchar(30);not null;index:idx_contract_doctype,unique" json:"document_type"`
	FileID       string         `gorm:"not null" json:"file_id"`
	FileName     string         `json:"file_name"`
	Status       DocumentStatus `gorm:"type:varchar(20);not null;default:'uploaded'" json:"status"`
	UploadedBy   uuid.UUID      `gorm:"type:uuid;not null" json:"uploaded_by"`
	ReviewedBy   *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewNotes  string         `json:"review_notes,omitempty"`
	ExpiryDate   *time.Time     `json:"expiry_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Payment is one billing cycle (cuenta de cobro) of a contract.
type Payment struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"contract_id"`
	Amount          float64       `gorm:"not null" json:"amount"`
	PaymentDate     time.Time     `gorm:"not null" json:"payment_date"`
	Description     string        `json:"description,omitempty"`
	Status          PaymentStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedBy       uuid.UUID     `gorm:"type:uuid;not null" json:"created_by"`
	BillFileID      *string       `json:"bill_file_id,omitempty"`
	VoucherFileID   *string       `json:"voucher_file_id,omitempty"`
	ApprovedBy      *uuid.UUID    `gorm:"type:uuid" json:"approved_by,omitempty"`
	RejectedBy      *uuid.UUID    `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	ConfirmedBy     *uuid.UUID    `gorm:"type:uuid" json:"confirmed_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Notification is a one-way signal to the presentation layer. The workflow
// engine only ever writes these.
type Notification struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title            string    `gorm:"not null" json:"title"`
	Message          string    `gorm:"type:text" json:"message"`
	NotificationType string    `gorm:"type:varchar(50)" json:"notification_type"`
	Read             bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuditLog is an append-only record of every state-changing operation.
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	ResourceType string    `gorm:"type:varchar(30);not null" json:"resource_type"`
	ResourceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"resource_id"`
	Details      string    `gorm:"type:text" json:"details,omitempty"` // JSON blob
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DashboardStats is the role-aware counters payload.
type DashboardStats struct {
	TotalContracts     int64 `json:"total_contracts"`
	PendingContracts   int64 `json:"pending_contracts"`
	ActiveContracts    int64 `json:"active_contracts"`
	PendingApprovals   int64 `json:"pending_approvals"`
	PendingDocuments   int64 `json:"pending_documents"`
	ExpiringDocuments  int64 `json:"expiring_documents"`
	PendingPayments    int64 `json:"pending_payments"`
	TotalCollaborators int64 `json:"total_collaborators"`
}
