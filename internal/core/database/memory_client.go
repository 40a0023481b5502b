package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

// MemoryClient is an in-process DbClient for local development and tests.
type MemoryClient struct {
	mu        sync.RWMutex
	users     map[string]models.User // id -> user
	emails    map[string]string      // email -> id
	documents map[string]models.Document
}

var _ core.DbClient = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		documents: make(map[string]models.Document),
	}
}

func (m *MemoryClient) Close() error { return nil }

func (m *MemoryClient) UpsertUser(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.emails[u.Email]; ok {
		existing := m.users[id]
		return &existing, false, nil
	}
	stored := *u
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	m.users[stored.ID] = stored
	m.emails[stored.Email] = stored.ID
	return &stored, true, nil
}

func (m *MemoryClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	id, ok := m.emails[email]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.GetUserByID(ctx, id)
}

func (m *MemoryClient) ListUsers(ctx context.Context, p models.Pagination) ([]models.User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	all := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return before(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID, p.OrderBy)
	})
	return window(all, p), len(all), nil
}

func (m *MemoryClient) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return &u, nil
}

func (m *MemoryClient) DeleteUser(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	delete(m.users, id)
	delete(m.emails, u.Email)
	return true, nil
}

func (m *MemoryClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

func (m *MemoryClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, nil
	}
	d = cloneDocument(d)
	return &d, nil
}

func (m *MemoryClient) ListDocumentsByOwner(ctx context.Context, ownerID string, p models.Pagination) ([]models.Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	var owned []models.Document
	for _, d := range m.documents {
		if d.UploadedBy == ownerID {
			owned = append(owned, cloneDocument(d))
		}
	}
	m.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		return before(owned[i].CreatedAt, owned[i].ID, owned[j].CreatedAt, owned[j].ID, p.OrderBy)
	})
	return window(owned, p), len(owned), nil
}

func (m *MemoryClient) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return core.NotFound("Document not found")
	}
	if d.Status == models.StatusIngested {
		return core.Validation("Document is already ingested")
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	m.documents[id] = d
	return nil
}

func (m *MemoryClient) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return false, nil
	}
	delete(m.documents, id)
	return true, nil
}

func cloneDocument(d models.Document) models.Document {
	if d.MetaInfo != nil {
		meta := *d.MetaInfo
		d.MetaInfo = &meta
	}
	return d
}

// before orders by createdAt in the requested direction, then by id.
func before(ti time.Time, idi string, tj time.Time, idj string, order models.OrderBy) bool {
	if !ti.Equal(tj) {
		if order == models.OrderDesc {
			return ti.After(tj)
		}
		return ti.Before(tj)
	}
	return idi < idj
}

func window[T any](items []T, p models.Pagination) []T {
	offset := p.Offset()
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Limit < len(items)-offset {
		end = offset + p.Limit
	}
	return items[offset:end]
}
