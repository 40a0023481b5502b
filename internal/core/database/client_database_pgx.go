package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

// NewDatabaseClient opens the pool, pings it and applies migrations.
func NewDatabaseClient(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := EnsureBootstrapped(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// Open returns a pinged pool without touching the schema.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewDatabaseClientFromDB wraps an existing pool. Migrations are not applied.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (c *DatabaseClient) DB() *sql.DB { return c.db }

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

const userColumns = `id, email, password_hash, role, created_at, updated_at`

// UpsertUser relies on the users_email_key constraint so concurrent
// registrations of one email converge on a single row.
func (c *DatabaseClient) UpsertUser(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if u == nil {
		return nil, false, errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (email) DO UPDATE SET email = users.email
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`
	var (
		out      models.User
		inserted bool
	)
	err := c.db.QueryRowContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt).Scan(
		&out.ID, &out.Email, &out.PasswordHash, &out.Role, &out.CreatedAt, &out.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	return &out, inserted, nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return c.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (c *DatabaseClient) getUser(ctx context.Context, q string, arg any) (*models.User, error) {
	var u models.User
	err := c.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns one page and the total in a single statement. The LEFT
// JOIN keeps the count row when the page is past the end.
func (c *DatabaseClient) ListUsers(ctx context.Context, p models.Pagination) ([]models.User, int, error) {
	q := fmt.Sprintf(`
		WITH filtered AS (
			SELECT `+userColumns+` FROM users
		), total AS (
			SELECT count(*) AS n FROM filtered
		)
		SELECT total.n, pg.id, pg.email, pg.password_hash, pg.role, pg.created_at, pg.updated_at
		FROM total
		LEFT JOIN LATERAL (
			SELECT * FROM filtered ORDER BY created_at %s, id LIMIT $1 OFFSET $2
		) pg ON true
	`, direction(p))

	rows, err := c.db.QueryContext(ctx, q, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   = []models.User{}
		total int
	)
	for rows.Next() {
		var (
			id, email, hash, role sql.NullString
			created, updated      sql.NullTime
		)
		if err := rows.Scan(&total, &id, &email, &hash, &role, &created, &updated); err != nil {
			return nil, 0, err
		}
		if !id.Valid {
			continue
		}
		out = append(out, models.User{
			ID: id.String, Email: email.String, PasswordHash: hash.String,
			Role: models.Role(role.String), CreatedAt: created.Time, UpdatedAt: updated.Time,
		})
	}
	return out, total, rows.Err()
}

func (c *DatabaseClient) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !validID(id) {
		return nil, nil
	}
	const q = `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id, role).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) DeleteUser(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return c.deleteByID(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// Documents

const documentColumns = `id, title, uploaded_by, url, status, meta_info, created_at, updated_at`

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	meta, err := encodeMeta(doc.MetaInfo)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = c.db.ExecContext(ctx, q,
		doc.ID, doc.Title, doc.UploadedBy, doc.URL, doc.Status, meta, doc.CreatedAt, doc.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	if !validID(id) {
		return nil, nil
	}
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var (
		d    models.Document
		meta []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Title, &d.UploadedBy, &d.URL, &d.Status, &meta, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.MetaInfo, err = decodeMeta(meta); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocumentsByOwner filters by uploaded_by and counts in the same statement.
func (c *DatabaseClient) ListDocumentsByOwner(ctx context.Context, ownerID string, p models.Pagination) ([]models.Document, int, error) {
	if !validID(ownerID) {
		return []models.Document{}, 0, nil
	}
	q := fmt.Sprintf(`
		WITH filtered AS (
			SELECT `+documentColumns+` FROM documents WHERE uploaded_by = $1
		), total AS (
			SELECT count(*) AS n FROM filtered
		)
		SELECT total.n, pg.id, pg.title, pg.uploaded_by, pg.url, pg.status, pg.meta_info, pg.created_at, pg.updated_at
		FROM total
		LEFT JOIN LATERAL (
			SELECT * FROM filtered ORDER BY created_at %s, id LIMIT $2 OFFSET $3
		) pg ON true
	`, direction(p))

	rows, err := c.db.QueryContext(ctx, q, ownerID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   = []models.Document{}
		total int
	)
	for rows.Next() {
		var (
			id, title, owner, url, status sql.NullString
			meta                          []byte
			created, updated              sql.NullTime
		)
		if err := rows.Scan(&total, &id, &title, &owner, &url, &status, &meta, &created, &updated); err != nil {
			return nil, 0, err
		}
		if !id.Valid {
			continue
		}
		info, err := decodeMeta(meta)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, models.Document{
			ID: id.String, Title: title.String, UploadedBy: owner.String, URL: url.String,
			Status: models.DocumentStatus(status.String), MetaInfo: info,
			CreatedAt: created.Time, UpdatedAt: updated.Time,
		})
	}
	return out, total, rows.Err()
}

// UpdateDocumentStatus only touches rows that are not INGESTED yet. When no
// row changes a follow-up read tells a missing document from a lost race.
func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	if !validID(id) {
		return core.NotFound("Document not found")
	}
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status <> 'INGESTED'
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	err = c.db.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound("Document not found")
	}
	if err != nil {
		return err
	}
	return core.Validation("Document is already ingested")
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return c.deleteByID(ctx, `DELETE FROM documents WHERE id = $1`, id)
}

func (c *DatabaseClient) deleteByID(ctx context.Context, q, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// validID reports whether id can be compared against a UUID column. Anything
// else would fail the cast in Postgres, so callers treat it as no match.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// direction only ever yields ASC or DESC so it is safe to splice into SQL.
func direction(p models.Pagination) string {
	if p.OrderBy == models.OrderDesc {
		return "DESC"
	}
	return "ASC"
}

// encodeMeta returns an untyped nil for a missing value so the column is NULL.
func encodeMeta(m *models.FileMetaInfo) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode meta_info: %w", err)
	}
	return string(b), nil
}

func decodeMeta(b []byte) (*models.FileMetaInfo, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m models.FileMetaInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode meta_info: %w", err)
	}
	return &m, nil
}
