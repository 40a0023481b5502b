package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level attached to a user and carried in every token.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// DocumentStatus tracks where a document is in the ingestion handshake.
type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "UPLOADED"
	StatusIngested DocumentStatus = "INGESTED"
	StatusFailed   DocumentStatus = "FAILED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusIngested, StatusFailed:
		return true
	}
	return false
}

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Identity is the verified caller extracted from a token.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// FileMetaInfo describes the binary a document was created from.
type FileMetaInfo struct {
	OriginalName string `json:"originalName,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
	FieldName    string `json:"fieldName,omitempty"`
}

// Document is a stored file reference owned by one user.
type Document struct {
	ID         string         `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	UploadedBy string         `db:"uploaded_by" json:"uploadedBy"`
	URL        string         `db:"url" json:"url"` // object-store URL or an external link
	Status     DocumentStatus `db:"status" json:"status"`
	MetaInfo   *FileMetaInfo  `db:"meta_info" json:"metaInfo,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}
