package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/api/respond"
	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
	"github.com/markdave123-py/docflow/internal/services"
)

// MaxUploadSize caps multipart uploads.
const MaxUploadSize = 50 << 20

type DocumentHandler struct {
	docs *services.DocumentService
	log  logrus.FieldLogger
}

func NewDocumentHandler(docs *services.DocumentService, log logrus.FieldLogger) *DocumentHandler {
	return &DocumentHandler{docs: docs, log: log}
}

type createDocumentRequest struct {
	Title    string               `json:"title"`
	URL      string               `json:"url"`
	MetaInfo *models.FileMetaInfo `json:"metaInfo,omitempty"`

	// Older clients nest the payload under documentCreateDto.
	Nested *createDocumentRequest `json:"documentCreateDto,omitempty"`
}

type presignRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Upload takes a multipart form with a "file" part and an optional "title".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respond.Error(w, h.log, core.Validation("invalid multipart form"))
		return
	}

	var upload *services.UploadFile
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload = &services.UploadFile{
			Name:      header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			Encoding:  header.Header.Get("Content-Transfer-Encoding"),
			FieldName: "file",
			Size:      header.Size,
			Data:      file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		respond.Error(w, h.log, core.Validation("invalid file"))
		return
	}

	doc, err := h.docs.UploadBinary(r.Context(), caller, r.FormValue("title"), upload)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, doc)
}

// Create records a document that already lives at a URL.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if req.Nested != nil {
		req = *req.Nested
	}

	doc, err := h.docs.RegisterByURL(r.Context(), caller, services.RegisterDocumentInput{
		Title:    req.Title,
		URL:      req.URL,
		MetaInfo: req.MetaInfo,
	})
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	up, err := h.docs.IssuePresignedUploadURL(r.Context(), req.FileName, req.FileType)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, up)
}

// FindByUser lists any user's documents. Admin only.
func (h *DocumentHandler) FindByUser(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	p, err := paginationFrom(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	page, err := h.docs.ListByUser(r.Context(), caller, chi.URLParam(r, "user_id"), p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *DocumentHandler) FindMine(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	p, err := paginationFrom(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	page, err := h.docs.ListByOwner(r.Context(), caller.UserID, p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *DocumentHandler) FindOne(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	res, err := h.docs.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Ingest hands the caller's document to the ingestion service.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	doc, err := h.docs.TriggerIngestion(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}
