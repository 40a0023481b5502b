package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docflow/internal/core"
	db "github.com/markdave123-py/docflow/internal/core/database"
	"github.com/markdave123-py/docflow/internal/core/token"
	"github.com/markdave123-py/docflow/internal/logging"
	"github.com/markdave123-py/docflow/internal/models"
)

const bucketBase = "https://docs.s3.us-east-2.amazonaws.com/"

// fakeObjects records calls and stores bodies in memory.
type fakeObjects struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	calls      int
	uploadErr  error
	deleteErr  error
	presignErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) UploadFile(_ context.Context, key string, data io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.objects[key] = b
	return bucketBase + key, nil
}

func (f *fakeObjects) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) PresignPut(_ context.Context, key, _ string, expires time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("%s%s?op=put&expires=%d", bucketBase, key, int(expires.Seconds())), nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("%s%s?op=get&expires=%d", bucketBase, key, int(expires.Seconds())), nil
}

func (f *fakeObjects) KeyFromURL(raw string) (string, bool) {
	key, ok := strings.CutPrefix(raw, bucketBase)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (f *fakeObjects) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeDispatcher delegates to DispatchFunc.
type fakeDispatcher struct {
	mu           sync.Mutex
	requests     []core.IngestionRequest
	DispatchFunc func(ctx context.Context, req core.IngestionRequest) error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req core.IngestionRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.DispatchFunc != nil {
		return f.DispatchFunc(ctx, req)
	}
	return nil
}

// failingDocStore wraps a store and fails writes on demand.
type failingDocStore struct {
	core.DocumentStore
	createErr error
	updateErr error
	deleteErr error
}

func (f *failingDocStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.DocumentStore.CreateDocument(ctx, doc)
}

func (f *failingDocStore) UpdateDocumentStatus(ctx context.Context, id string, s models.DocumentStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.DocumentStore.UpdateDocumentStatus(ctx, id, s)
}

func (f *failingDocStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.DocumentStore.DeleteDocument(ctx, id)
}

type harness struct {
	store      *db.MemoryClient
	objects    *fakeObjects
	dispatcher *fakeDispatcher
	tokens     *token.JWTIssuer
	users      *UserService
	auth       *AuthService
	storage    *StorageService
	docs       *DocumentService
	guard      *Guard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logging.Discard()
	store := db.NewMemoryClient()
	objects := newFakeObjects()
	dispatcher := &fakeDispatcher{}
	tokens, err := token.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	users := NewUserService(store, log)
	storage := NewStorageService(objects, time.Hour, log)
	return &harness{
		store:      store,
		objects:    objects,
		dispatcher: dispatcher,
		tokens:     tokens,
		users:      users,
		auth:       NewAuthService(users, tokens, log),
		storage:    storage,
		docs:       NewDocumentService(store, users, storage, dispatcher, nil, log),
		guard:      NewGuard(tokens),
	}
}

// register creates a user and returns the identity carried by its token.
func (h *harness) register(t *testing.T, email string, role models.Role) models.Identity {
	t.Helper()
	res, err := h.auth.Register(context.Background(), RegisterInput{Email: email, Password: "password1", Role: string(role)})
	require.NoError(t, err)
	id, err := h.guard.Authenticate(res.Token)
	require.NoError(t, err)
	return id
}

func (h *harness) upload(t *testing.T, caller models.Identity, name, body string) *models.Document {
	t.Helper()
	doc, err := h.docs.UploadBinary(context.Background(), caller, "", &UploadFile{
		Name: name, MimeType: "text/plain", Size: int64(len(body)), Data: strings.NewReader(body),
	})
	require.NoError(t, err)
	return doc
}
