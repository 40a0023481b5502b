package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/metrics"
	"github.com/markdave123-py/docflow/internal/models"
)

// UploadFile is a binary received from a client, plus what the client said about it.
type UploadFile struct {
	Name      string
	MimeType  string
	Encoding  string
	FieldName string
	Size      int64
	Data      io.Reader
}

type RegisterDocumentInput struct {
	Title    string
	URL      string
	MetaInfo *models.FileMetaInfo
}

type RemoveResult struct {
	Message string `json:"message"`
}

type DocumentService struct {
	store      core.DocumentStore
	users      *UserService
	storage    *StorageService
	dispatcher core.Dispatcher
	metrics    metrics.Recorder
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewDocumentService(store core.DocumentStore, users *UserService, storage *StorageService,
	dispatcher core.Dispatcher, rec metrics.Recorder, log logrus.FieldLogger) *DocumentService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &DocumentService{
		store:      store,
		users:      users,
		storage:    storage,
		dispatcher: dispatcher,
		metrics:    rec,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UploadBinary stores the file, then records one UPLOADED document owned by the caller.
func (s *DocumentService) UploadBinary(ctx context.Context, caller models.Identity, title string, file *UploadFile) (*models.Document, error) {
	if file == nil || file.Data == nil || file.Size == 0 {
		return nil, core.Validation("No file uploaded")
	}
	if _, err := s.users.Get(ctx, caller.UserID); err != nil {
		return nil, err
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectURL, err := s.storage.Put(ctx, file.Name, file.Data, file.Size, contentType)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = file.Name
	}
	doc := s.newDocument(caller.UserID, title, objectURL, &models.FileMetaInfo{
		OriginalName: file.Name,
		MimeType:     contentType,
		Size:         file.Size,
		Encoding:     file.Encoding,
		FieldName:    file.FieldName,
	})
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		entry := s.log.WithError(err).WithField("url", objectURL)
		entry.Error("document record not saved after upload")
		if derr := s.storage.Delete(ctx, objectURL); derr != nil {
			entry.WithField("cleanup_error", derr.Error()).Warn("uploaded object left orphaned")
		}
		return nil, core.Dependency("Failed to save document", err)
	}

	s.log.WithFields(logrus.Fields{"document_id": doc.ID, "user_id": caller.UserID}).Info("document uploaded")
	return doc, nil
}

// RegisterByURL records a document whose bytes already live somewhere reachable.
func (s *DocumentService) RegisterByURL(ctx context.Context, caller models.Identity, in RegisterDocumentInput) (*models.Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, core.Validation("title is required")
	}
	if err := validateDocumentURL(in.URL); err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, caller.UserID); err != nil {
		return nil, err
	}

	doc := s.newDocument(caller.UserID, strings.TrimSpace(in.Title), in.URL, in.MetaInfo)
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, core.Dependency("Failed to save document", err)
	}
	s.log.WithFields(logrus.Fields{"document_id": doc.ID, "user_id": caller.UserID}).Info("document registered")
	return doc, nil
}

func (s *DocumentService) IssuePresignedUploadURL(ctx context.Context, fileName, fileType string) (*PresignedUpload, error) {
	return s.storage.IssueUploadURL(ctx, fileName, fileType)
}

func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string, p models.Pagination) (*models.Page[models.Document], error) {
	docs, total, err := s.store.ListDocumentsByOwner(ctx, ownerID, p)
	if err != nil {
		return nil, core.Dependency("Failed to list documents", err)
	}
	return &models.Page[models.Document]{Data: docs, Meta: models.NewPaginationMeta(p.Page, p.Limit, total)}, nil
}

// ListByUser lists another user's documents. Only admins may call it.
func (s *DocumentService) ListByUser(ctx context.Context, caller models.Identity, targetUserID string, p models.Pagination) (*models.Page[models.Document], error) {
	if err := Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.ListByOwner(ctx, targetUserID, p)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, core.Dependency("Failed to load document", err)
	}
	if doc == nil {
		return nil, core.NotFound("Document not found")
	}
	return doc, nil
}

// Remove deletes the backing object first and the record only once that succeeded.
func (s *DocumentService) Remove(ctx context.Context, id string) (*RemoveResult, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Delete(ctx, doc.URL); err != nil {
		s.log.WithError(err).WithField("document_id", id).Warn("object delete failed; record kept")
		return nil, err
	}
	if _, err := s.store.DeleteDocument(ctx, id); err != nil {
		return nil, core.Dependency("Failed to delete document", err)
	}
	s.log.WithField("document_id", id).Info("document removed")
	return &RemoveResult{Message: "Document deleted successfully"}, nil
}

// TriggerIngestion hands an owned document to the ingestion service and
// records the outcome as INGESTED or FAILED.
func (s *DocumentService) TriggerIngestion(ctx context.Context, caller models.Identity, documentID string) (*models.Document, error) {
	var doc *models.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.Get(gctx, documentID)
		doc = d
		return err
	})
	g.Go(func() error {
		_, err := s.users.Get(gctx, caller.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if doc.UploadedBy != caller.UserID {
		return nil, core.Forbidden("Document is not created by user")
	}
	if doc.Status == models.StatusIngested {
		return nil, core.Validation("Document is already ingested")
	}

	readURL, err := s.storage.IssueReadURLForExisting(ctx, doc.URL)
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"document_id": doc.ID, "user_id": caller.UserID})
	if err := s.dispatcher.Dispatch(ctx, core.IngestionRequest{DocumentID: doc.ID, FileURL: readURL}); err != nil {
		s.markFailed(ctx, doc, entry)
		return nil, core.Dependency(fmt.Sprintf("Failed to trigger ingestion: %v", err), err)
	}

	if err := s.store.UpdateDocumentStatus(ctx, doc.ID, models.StatusIngested); err != nil {
		entry.WithError(err).Error("ingestion dispatched but status not saved")
		if core.KindOf(err) == core.KindValidation {
			return nil, err
		}
		return nil, core.Dependency("Failed to update document status", err)
	}
	s.metrics.RecordStatusTransition(string(models.StatusIngested))
	doc.Status = models.StatusIngested
	doc.UpdatedAt = s.now()
	entry.Info("document ingestion triggered")
	return doc, nil
}

// markFailed is best effort and survives the request context being cancelled.
func (s *DocumentService) markFailed(ctx context.Context, doc *models.Document, entry logrus.FieldLogger) {
	ctxSave, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.store.UpdateDocumentStatus(ctxSave, doc.ID, models.StatusFailed); err != nil {
		entry.WithError(err).Error("could not mark document FAILED")
		return
	}
	s.metrics.RecordStatusTransition(string(models.StatusFailed))
	doc.Status = models.StatusFailed
}

func (s *DocumentService) newDocument(owner, title, location string, meta *models.FileMetaInfo) *models.Document {
	now := s.now()
	return &models.Document{
		ID:         uuid.NewString(),
		Title:      title,
		UploadedBy: owner,
		URL:        location,
		Status:     models.StatusUploaded,
		MetaInfo:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func validateDocumentURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return core.Validation("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.Validation("url must be an absolute http(s) URL")
	}
	return nil
}
