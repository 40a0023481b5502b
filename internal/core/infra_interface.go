package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/docflow/internal/models"
)

// UserStore persists users. Lookups return (nil, nil) when nothing matches.
type UserStore interface {
	// UpsertUser inserts u, or returns the existing row when the email is taken.
	// created reports whether a new row was written.
	UpsertUser(ctx context.Context, u *models.User) (stored *models.User, created bool, err error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, p models.Pagination) ([]models.User, int, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// DocumentStore persists documents. Lookups return (nil, nil) when nothing matches.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	// ListDocumentsByOwner returns one page plus the total count of the owner's documents.
	ListDocumentsByOwner(ctx context.Context, ownerID string, p models.Pagination) ([]models.Document, int, error)
	// UpdateDocumentStatus never moves a document out of INGESTED. It returns a
	// Validation error when the stored status is already INGESTED and NotFound
	// when the document is missing.
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error
	DeleteDocument(ctx context.Context, id string) (bool, error)
}

// DbClient is everything the services need from the record store.
type DbClient interface {
	UserStore
	DocumentStore
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, size int64, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	// KeyFromURL maps a stored object URL back to its key. ok is false when the
	// URL does not point into this client's bucket.
	KeyFromURL(rawURL string) (key string, ok bool)
}

// IngestionRequest is the body sent to the external ingestion service.
type IngestionRequest struct {
	DocumentID string `json:"documentId"`
	FileURL    string `json:"fileUrl"`
}

// Dispatcher notifies the ingestion service that a document is ready.
type Dispatcher interface {
	Dispatch(ctx context.Context, req IngestionRequest) error
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(id models.Identity) (string, error)
	Verify(token string) (models.Identity, error)
}
