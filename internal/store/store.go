// Package store implements the workflow persistence contract on PostgreSQL
// through gorm. Conditional status updates are plain UPDATE ... WHERE id AND
// status queries; RowsAffected tells the caller whether the precondition held.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian138/th-academy/internal/workflow"
	"github.com/cristian138/th-academy/pkg/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// first loads one record into dst, mapping "not found" to a nil result.
func first(tx *gorm.DB, dst any) (bool, error) {
	err := tx.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

/* ================================ Users ================================= */

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	ok, err := first(s.db.WithContext(ctx).Where("email = ?", email), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, role *models.Role) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Order("created_at DESC")
	if role != nil {
		q = q.Where("role = ?", *role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, patch models.UserPatch) (bool, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return true, nil
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CountUsers(ctx context.Context, role *models.Role) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true)
	if role != nil {
		q = q.Where("role = ?", *role)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

/* =============================== Contracts ============================== */

func contractQuery(q *gorm.DB, f workflow.ContractFilter) *gorm.DB {
	if f.CollaboratorID != nil {
		q = q.Where("collaborator_id = ?", *f.CollaboratorID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	return q
}

func (s *Store) GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var c models.Contract
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListContracts(ctx context.Context, f workflow.ContractFilter) ([]models.Contract, error) {
	q := contractQuery(s.db.WithContext(ctx).Model(&models.Contract{}), f).Order("created_at DESC")
	var list []models.Contract
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) InsertContract(ctx context.Context, c *models.Contract) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) UpdateContractIfStatus(ctx context.Context, id uuid.UUID, expected models.ContractStatus, patch models.ContractPatch) (bool, error) {
	changes := patch.Changes()
	changes["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CountContracts(ctx context.Context, f workflow.ContractFilter) (int64, error) {
	var n int64
	err := contractQuery(s.db.WithContext(ctx).Model(&models.Contract{}), f).Count(&n).Error
	return n, err
}

/* =============================== Documents ============================== */

func documentQuery(q *gorm.DB, f workflow.DocumentFilter) *gorm.DB {
	if f.ContractID != nil {
		q = q.Where("contract_id = ?", *f.ContractID)
	}
	if f.Type != nil {
		q = q.Where("document_type = ?", *f.Type)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ExpiresAfter != nil {
		q = q.Where("expiry_date >= ?", *f.ExpiresAfter)
	}
	if f.ExpiresBefore != nil {
		q = q.Where("expiry_date IS NOT NULL AND expiry_date <= ?", *f.ExpiresBefore)
	}
	return q
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetDocumentByType(ctx context.Context, contractID uuid.UUID, t models.DocumentType) (*models.Document, error) {
	var d models.Document
	ok, err := first(s.db.WithContext(ctx).
		Where("contract_id = ? AND document_type = ?", contractID, t), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDocuments(ctx context.Context, f workflow.DocumentFilter) ([]models.Document, error) {
	q := documentQuery(s.db.WithContext(ctx).Model(&models.Document{}), f).Order("created_at DESC")
	var list []models.Document
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) InsertDocument(ctx context.Context, d *models.Document) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *Store) UpdateDocument(ctx context.Context, id uuid.UUID, patch models.DocumentPatch) (bool, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return true, nil
	}
	changes["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(changes)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) UpdateDocumentIfStatus(ctx context.Context, id uuid.UUID, expected models.DocumentStatus, expectedFileID string, patch models.DocumentPatch) (bool, error) {
	changes := patch.Changes()
	changes["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND status = ? AND file_id = ?", id, expected, expectedFileID).
		Updates(changes)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CountDocuments(ctx context.Context, f workflow.DocumentFilter) (int64, error) {
	var n int64
	err := documentQuery(s.db.WithContext(ctx).Model(&models.Document{}), f).Count(&n).Error
	return n, err
}

/* =============================== Payments =============================== */

func paymentQuery(q *gorm.DB, f workflow.PaymentFilter) *gorm.DB {
	if f.ContractID != nil {
		q = q.Where("contract_id = ?", *f.ContractID)
	}
	if len(f.ContractIDs) > 0 {
		q = q.Where("contract_id IN ?", f.ContractIDs)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	return q
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, f workflow.PaymentFilter) ([]models.Payment, error) {
	q := paymentQuery(s.db.WithContext(ctx).Model(&models.Payment{}), f).Order("created_at DESC")
	var list []models.Payment
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) InsertPayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) UpdatePaymentIfStatus(ctx context.Context, id uuid.UUID, expected models.PaymentStatus, patch models.PaymentPatch) (bool, error) {
	changes := patch.Changes()
	changes["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CountPayments(ctx context.Context, f workflow.PaymentFilter) (int64, error) {
	var n int64
	err := paymentQuery(s.db.WithContext(ctx).Model(&models.Payment{}), f).Count(&n).Error
	return n, err
}

/* ============================ Notifications ============================= */

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}

/* ================================ Audit ================================= */

// Append writes one audit record. Satisfies the workflow audit sink.
func (s *Store) Append(ctx context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]any) error {
	entry := models.AuditLog{
		ID:           uuid.New(),
		UserID:       actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = string(b)
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// ListAuditLogs returns the newest audit entries, optionally for one resource.
func (s *Store) ListAuditLogs(ctx context.Context, resourceID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{}).Order("created_at DESC").Limit(limit)
	if resourceID != nil {
		q = q.Where("resource_id = ?", *resourceID)
	}
	var list []models.AuditLog
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
