package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

const (
	docID   = "5b1f6f1e-3c1a-4f43-9a38-0d1c2b7e9a10"
	ownerID = "8d0c7a52-1f6e-4d3b-b0a4-6c9e2f1d3a77"
)

func newMockClient(t *testing.T) (*DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDatabaseClientFromDB(db), mock
}

func TestUpsertUserReturnsExistingRow(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT \\(email\\)").
		WithArgs("new-id", "a@example.com", "hash", "VIEWER", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at", "inserted"}).
			AddRow("old-id", "a@example.com", "old-hash", "EDITOR", now, now, false))

	u, created, err := client.UpsertUser(context.Background(), &models.User{
		ID: "new-id", Email: "a@example.com", PasswordHash: "hash", Role: models.RoleViewer, CreatedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "old-id", u.ID)
	assert.Equal(t, models.RoleEditor, u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailMissing(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}))

	u, err := client.GetUserByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDocumentWritesMetaAsJSON(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "Report", "user-1", "https://b.s3.us-east-2.amazonaws.com/documents/k", "UPLOADED",
			`{"originalName":"r.pdf","mimeType":"application/pdf","size":42}`, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := client.CreateDocument(context.Background(), &models.Document{
		ID: "doc-1", Title: "Report", UploadedBy: "user-1",
		URL:    "https://b.s3.us-east-2.amazonaws.com/documents/k",
		Status: models.StatusUploaded,
		MetaInfo: &models.FileMetaInfo{
			OriginalName: "r.pdf", MimeType: "application/pdf", Size: 42,
		},
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDocumentWithoutMetaWritesNull(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-2", "Link", "user-1", "https://example.com/a.pdf", "UPLOADED", nil, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := client.CreateDocument(context.Background(), &models.Document{
		ID: "doc-2", Title: "Link", UploadedBy: "user-1", URL: "https://example.com/a.pdf",
		Status: models.StatusUploaded, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentByIDDecodesMeta(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM documents WHERE id").
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "uploaded_by", "url", "status", "meta_info", "created_at", "updated_at"}).
			AddRow(docID, "Report", ownerID, "u", "FAILED", []byte(`{"mimeType":"text/plain"}`), now, now))

	d, err := client.GetDocumentByID(context.Background(), docID)
	require.NoError(t, err)
	require.NotNil(t, d.MetaInfo)
	assert.Equal(t, "text/plain", d.MetaInfo.MimeType)
	assert.Equal(t, models.StatusFailed, d.Status)
}

func TestListDocumentsByOwnerCountsOnEmptyPage(t *testing.T) {
	client, mock := newMockClient(t)
	p := models.Pagination{Page: 5, Limit: 10, SortBy: models.SortNew, OrderBy: models.OrderDesc}

	mock.ExpectQuery("WITH filtered AS .* WHERE uploaded_by = \\$1 .* ORDER BY created_at DESC").
		WithArgs(ownerID, 10, 40).
		WillReturnRows(sqlmock.NewRows([]string{"n", "id", "title", "uploaded_by", "url", "status", "meta_info", "created_at", "updated_at"}).
			AddRow(12, nil, nil, nil, nil, nil, nil, nil, nil))

	docs, total, err := client.ListDocumentsByOwner(context.Background(), ownerID, p)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 12, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocumentsByOwnerPage(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs(ownerID, 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"n", "id", "title", "uploaded_by", "url", "status", "meta_info", "created_at", "updated_at"}).
			AddRow(3, "d1", "One", ownerID, "u1", "UPLOADED", nil, now, now).
			AddRow(3, "d2", "Two", ownerID, "u2", "INGESTED", nil, now.Add(time.Second), now))

	docs, total, err := client.ListDocumentsByOwner(context.Background(), ownerID,
		models.Pagination{Page: 1, Limit: 2, OrderBy: models.OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, models.StatusIngested, docs[1].Status)
}

func TestUpdateDocumentStatusMissingRow(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec("UPDATE documents .* status <> 'INGESTED'").
		WithArgs(docID, "INGESTED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM documents WHERE id").
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := client.UpdateDocumentStatus(context.Background(), docID, models.StatusIngested)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDocumentStatusKeepsIngested(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec("UPDATE documents .* status <> 'INGESTED'").
		WithArgs(docID, "FAILED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM documents WHERE id").
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("INGESTED"))

	err := client.UpdateDocumentStatus(context.Background(), docID, models.StatusFailed)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.Equal(t, "Document is already ingested", core.MessageOf(err, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDocumentStatusFromFailed(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec("UPDATE documents .* status <> 'INGESTED'").
		WithArgs(docID, "INGESTED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, client.UpdateDocumentStatus(context.Background(), docID, models.StatusIngested))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDocumentReportsRowsAffected(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec("DELETE FROM documents").WithArgs(docID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM documents").WithArgs(docID).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := client.DeleteDocument(context.Background(), docID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.DeleteDocument(context.Background(), docID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRoleMissing(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("UPDATE users SET role").
		WithArgs(ownerID, "ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}))

	u, err := client.UpdateUserRole(context.Background(), ownerID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMalformedIDsNeverReachPostgres(t *testing.T) {
	client, mock := newMockClient(t)
	ctx := context.Background()

	d, err := client.GetDocumentByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, d)

	u, err := client.GetUserByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = client.UpdateUserRole(ctx, "abc", models.RoleAdmin)
	require.NoError(t, err)
	assert.Nil(t, u)

	ok, err := client.DeleteUser(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.DeleteDocument(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	docs, total, err := client.ListDocumentsByOwner(ctx, "abc", models.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, total)

	err = client.UpdateDocumentStatus(ctx, "abc", models.StatusFailed)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocumentsByOwnerSaturatedOffset(t *testing.T) {
	client, mock := newMockClient(t)
	p, err := models.NewPagination(1<<40, 10, "", "")
	require.NoError(t, err)

	mock.ExpectQuery("WITH filtered AS").
		WithArgs(ownerID, 10, p.Offset()).
		WillReturnRows(sqlmock.NewRows([]string{"n", "id", "title", "uploaded_by", "url", "status", "meta_info", "created_at", "updated_at"}).
			AddRow(3, nil, nil, nil, nil, nil, nil, nil, nil))

	docs, total, err := client.ListDocumentsByOwner(context.Background(), ownerID, p)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 3, total)
	assert.Positive(t, p.Offset())
	require.NoError(t, mock.ExpectationsWereMet())
}
