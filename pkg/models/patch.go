package models

import (
	"time"

	"github.com/google/uuid"
)

// Typed patch objects for partial updates. Nil fields are left untouched;
// the Clear* flags null out columns that pointer fields cannot express.
// Changes() yields the column map the gorm store feeds into Updates().

// UserPatch updates mutable user fields.
type UserPatch struct {
	Name     *string
	Phone    *string
	IsActive *bool
}

func (p UserPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Phone != nil {
		m["phone"] = *p.Phone
	}
	if p.IsActive != nil {
		m["is_active"] = *p.IsActive
	}
	return m
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = time.Now().UTC()
}

// ContractPatch updates contract lifecycle fields.
type ContractPatch struct {
	Status         *ContractStatus
	ApprovedBy     *uuid.UUID
	ContractFileID *string
	SignedFileID   *string
	Title          *string
	Description    *string
	Notes          *string
	EndDate        *time.Time
}

func (p ContractPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.ApprovedBy != nil {
		m["approved_by"] = *p.ApprovedBy
	}
	if p.ContractFileID != nil {
		m["contract_file_id"] = *p.ContractFileID
	}
	if p.SignedFileID != nil {
		m["signed_file_id"] = *p.SignedFileID
	}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Notes != nil {
		m["notes"] = *p.Notes
	}
	if p.EndDate != nil {
		m["end_date"] = *p.EndDate
	}
	return m
}

func (p ContractPatch) Apply(c *Contract) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ApprovedBy != nil {
		v := *p.ApprovedBy
		c.ApprovedBy = &v
	}
	if p.ContractFileID != nil {
		v := *p.ContractFileID
		c.ContractFileID = &v
	}
	if p.SignedFileID != nil {
		v := *p.SignedFileID
		c.SignedFileID = &v
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.EndDate != nil {
		v := *p.EndDate
		c.EndDate = &v
	}
	c.UpdatedAt = time.Now().UTC()
}

// DocumentPatch updates a document record. ClearReview wipes reviewer and
// notes, used when a re-upload resets the review cycle.
type DocumentPatch struct {
	Status      *DocumentStatus
	FileID      *string
	FileName    *string
	UploadedBy  *uuid.UUID
	ReviewedBy  *uuid.UUID
	ReviewNotes *string
	ExpiryDate  *time.Time
	ClearReview bool
	ClearExpiry bool
}

func (p DocumentPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.FileID != nil {
		m["file_id"] = *p.FileID
	}
	if p.FileName != nil {
		m["file_name"] = *p.FileName
	}
	if p.UploadedBy != nil {
		m["uploaded_by"] = *p.UploadedBy
	}
	if p.ReviewedBy != nil {
		m["reviewed_by"] = *p.ReviewedBy
	}
	if p.ReviewNotes != nil {
		m["review_notes"] = *p.ReviewNotes
	}
	if p.ExpiryDate != nil {
		m["expiry_date"] = *p.ExpiryDate
	}
	if p.ClearReview {
		m["reviewed_by"] = nil
		m["review_notes"] = ""
	}
	if p.ClearExpiry {
		m["expiry_date"] = nil
	}
	return m
}

func (p DocumentPatch) Apply(d *Document) {
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.FileID != nil {
		d.FileID = *p.FileID
	}
	if p.FileName != nil {
		d.FileName = *p.FileName
	}
	if p.UploadedBy != nil {
		d.UploadedBy = *p.UploadedBy
	}
	if p.ReviewedBy != nil {
		v := *p.ReviewedBy
		d.ReviewedBy = &v
	}
	if p.ReviewNotes != nil {
		d.ReviewNotes = *p.ReviewNotes
	}
	if p.ExpiryDate != nil {
		v := *p.ExpiryDate
		d.ExpiryDate = &v
	}
	if p.ClearReview {
		d.ReviewedBy = nil
		d.ReviewNotes = ""
	}
	if p.ClearExpiry {
		d.ExpiryDate = nil
	}
	d.UpdatedAt = time.Now().UTC()
}

// PaymentPatch updates a payment record. A rejection clears approval markers
// and an approval clears rejection markers, so that exactly one side is ever
// set after the payment leaves PENDING_APPROVAL.
type PaymentPatch struct {
	Status          *PaymentStatus
	BillFileID      *string
	VoucherFileID   *string
	ApprovedBy      *uuid.UUID
	RejectedBy      *uuid.UUID
	RejectionReason *string
	ConfirmedBy     *uuid.UUID
	ClearApproval   bool
	ClearRejection  bool
}

func (p PaymentPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.BillFileID != nil {
		m["bill_file_id"] = *p.BillFileID
	}
	if p.VoucherFileID != nil {
		m["voucher_file_id"] = *p.VoucherFileID
	}
	if p.ApprovedBy != nil {
		m["approved_by"] = *p.ApprovedBy
	}
	if p.RejectedBy != nil {
		m["rejected_by"] = *p.RejectedBy
	}
	if p.RejectionReason != nil {
		m["rejection_reason"] = *p.RejectionReason
	}
	if p.ConfirmedBy != nil {
		m["confirmed_by"] = *p.ConfirmedBy
	}
	if p.ClearApproval {
		m["approved_by"] = nil
		m["confirmed_by"] = nil
	}
	if p.ClearRejection {
		m["rejected_by"] = nil
		m["rejection_reason"] = ""
	}
	return m
}

func (p PaymentPatch) Apply(pay *Payment) {
	if p.Status != nil {
		pay.Status = *p.Status
	}
	if p.BillFileID != nil {
		v := *p.BillFileID
		pay.BillFileID = &v
	}
	if p.VoucherFileID != nil {
		v := *p.VoucherFileID
		pay.VoucherFileID = &v
	}
	if p.ApprovedBy != nil {
		v := *p.ApprovedBy
		pay.ApprovedBy = &v
	}
	if p.RejectedBy != nil {
		v := *p.RejectedBy
		pay.RejectedBy = &v
	}
	if p.RejectionReason != nil {
		pay.RejectionReason = *p.RejectionReason
	}
	if p.ConfirmedBy != nil {
		v := *p.ConfirmedBy
		pay.ConfirmedBy = &v
	}
	if p.ClearApproval {
		pay.ApprovedBy = nil
		pay.ConfirmedBy = nil
	}
	if p.ClearRejection {
		pay.RejectedBy = nil
		pay.RejectionReason = ""
	}
	pay.UpdatedAt = time.Now().UTC()
}
