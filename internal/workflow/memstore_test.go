package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cristian138/th-academy/pkg/config"
	"github.com/cristian138/th-academy/pkg/models"
)

/* ============================================================================
   In-memory fakes for the engine's collaborators
   ============================================================================ */

type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*models.User
	contracts     map[uuid.UUID]*models.Contract
	documents     map[uuid.UUID]*models.Document
	payments      map[uuid.UUID]*models.Payment
	notifications []models.Notification
	audits        []auditRecord
}

type auditRecord struct {
	Actor        uuid.UUID
	Action       string
	ResourceType string
	ResourceID   uuid.UUID
	Details      map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*models.User{},
		contracts: map[uuid.UUID]*models.Contract{},
		documents: map[uuid.UUID]*models.Document{},
		payments:  map[uuid.UUID]*models.Payment{},
	}
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListUsers(_ context.Context, role *models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if role == nil || u.Role == *role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, id uuid.UUID, patch models.UserPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	patch.Apply(u)
	return true, nil
}

func (m *memStore) CountUsers(_ context.Context, role *models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.IsActive && (role == nil || u.Role == *role) {
			n++
		}
	}
	return n, nil
}

func matchContract(c *models.Contract, f ContractFilter) bool {
	if f.CollaboratorID != nil && c.CollaboratorID != *f.CollaboratorID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *memStore) GetContract(_ context.Context, id uuid.UUID) (*models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contracts[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListContracts(_ context.Context, f ContractFilter) ([]models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Contract
	for _, c := range m.contracts {
		if matchContract(c, f) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) InsertContract(_ context.Context, c *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contracts[c.ID] = &cp
	return nil
}

func (m *memStore) UpdateContractIfStatus(_ context.Context, id uuid.UUID, expected models.ContractStatus, patch models.ContractPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok || c.Status != expected {
		return false, nil
	}
	patch.Apply(c)
	return true, nil
}

func (m *memStore) CountContracts(_ context.Context, f ContractFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.contracts {
		if matchContract(c, f) {
			n++
		}
	}
	return n, nil
}

func matchDocument(d *models.Document, f DocumentFilter) bool {
	if f.ContractID != nil && d.ContractID != *f.ContractID {
		return false
	}
	if f.Type != nil && d.DocumentType != *f.Type {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if d.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ExpiresAfter != nil && (d.ExpiryDate == nil || d.ExpiryDate.Before(*f.ExpiresAfter)) {
		return false
	}
	if f.ExpiresBefore != nil && (d.ExpiryDate == nil || d.ExpiryDate.After(*f.ExpiresBefore)) {
		return false
	}
	return true
}

func (m *memStore) GetDocument(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.documents[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetDocumentByType(_ context.Context, contractID uuid.UUID, t models.DocumentType) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.ContractID == contractID && d.DocumentType == t {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListDocuments(_ context.Context, f DocumentFilter) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.documents {
		if matchDocument(d, f) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) InsertDocument(_ context.Context, d *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.documents[d.ID] = &cp
	return nil
}

func (m *memStore) UpdateDocument(_ context.Context, id uuid.UUID, patch models.DocumentPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return false, nil
	}
	patch.Apply(d)
	return true, nil
}

func (m *memStore) UpdateDocumentIfStatus(_ context.Context, id uuid.UUID, expected models.DocumentStatus, expectedFileID string, patch models.DocumentPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok || d.Status != expected || d.FileID != expectedFileID {
		return false, nil
	}
	patch.Apply(d)
	return true, nil
}

func (m *memStore) CountDocuments(_ context.Context, f DocumentFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.documents {
		if matchDocument(d, f) {
			n++
		}
	}
	return n, nil
}

func matchPayment(p *models.Payment, f PaymentFilter) bool {
	if f.ContractID != nil && p.ContractID != *f.ContractID {
		return false
	}
	if len(f.ContractIDs) > 0 {
		found := false
		for _, id := range f.ContractIDs {
			if p.ContractID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if p.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *memStore) GetPayment(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListPayments(_ context.Context, f PaymentFilter) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if matchPayment(p, f) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) InsertPayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *memStore) UpdatePaymentIfStatus(_ context.Context, id uuid.UUID, expected models.PaymentStatus, patch models.PaymentPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != expected {
		return false, nil
	}
	patch.Apply(p)
	return true, nil
}

func (m *memStore) CountPayments(_ context.Context, f PaymentFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.payments {
		if matchPayment(p, f) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for i := len(m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if m.notifications[i].UserID == userID {
			out = append(out, m.notifications[i])
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

// Append implements the audit sink on the same fake.
func (m *memStore) Append(_ context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, auditRecord{
		Actor: actorID, Action: action, ResourceType: resourceType,
		ResourceID: resourceID, Details: details,
	})
	return nil
}

// notificationsFor returns notifications delivered to one user, oldest first.
func (m *memStore) notificationsFor(userID uuid.UUID) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// auditActions returns the actions recorded for one resource, in order.
func (m *memStore) auditActions(resourceID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.audits {
		if a.ResourceID == resourceID {
			out = append(out, a.Action)
		}
	}
	return out
}

type fakeVault struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  bool
	n     int
}

func newFakeVault() *fakeVault { return &fakeVault{blobs: map[string][]byte{}} }

func (v *fakeVault) Store(_ context.Context, content []byte, name, category string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fail {
		return "", context.DeadlineExceeded
	}
	v.n++
	id := category + "/" + name
	v.blobs[id] = content
	return id, nil
}

func (v *fakeVault) Retrieve(_ context.Context, fileID string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.blobs[fileID]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return b, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string // "to|subject"
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+"|"+subject)
	return nil
}

/* ============================================================================
   Engine and seed helpers
   ============================================================================ */

func testConfig() *config.Config {
	return &config.Config{
		Documents: config.DocumentsConfig{
			Required: []models.DocumentType{models.DocCedula, models.DocRut},
			Optional: []models.DocumentType{models.DocTarjetaEntrenador},
		},
		Payments: config.PaymentsConfig{ApprovalMinRole: models.RoleAccountant},
	}
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeVault) {
	t.Helper()
	ms := newMemStore()
	fv := newFakeVault()
	eng := New(ms, fv, &fakeNotifier{}, ms, testConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return eng, ms, fv
}

func seedUser(t *testing.T, ms *memStore, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@test.local",
		Name:     string(role),
		Role:     role,
		IsActive: true,
	}
	if err := ms.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedContract(t *testing.T, ms *memStore, collaboratorID uuid.UUID, status models.ContractStatus) *models.Contract {
	t.Helper()
	monthly := 1000.0
	c := &models.Contract{
		ID:             uuid.New(),
		CollaboratorID: collaboratorID,
		ContractType:   models.ContractService,
		Title:          "Entrenador de natación",
		StartDate:      time.Now(),
		MonthlyPayment: &monthly,
		Status:         status,
		CreatedBy:      uuid.New(),
	}
	if err := ms.InsertContract(context.Background(), c); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return c
}

func seedPayment(t *testing.T, ms *memStore, contractID uuid.UUID, status models.PaymentStatus) *models.Payment {
	t.Helper()
	p := &models.Payment{
		ID:          uuid.New(),
		ContractID:  contractID,
		Amount:      500,
		PaymentDate: time.Now(),
		Status:      status,
		CreatedBy:   uuid.New(),
	}
	if err := ms.InsertPayment(context.Background(), p); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func upload(name string) FileUpload {
	return FileUpload{Content: []byte("pdf-bytes"), FileName: name}
}
