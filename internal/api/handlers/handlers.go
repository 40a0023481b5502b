package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	appMiddleware "github.com/markdave123-py/docflow/internal/api/middlewares"
	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Validation("request body is required")
		}
		return core.Validation("invalid request body")
	}
	return nil
}

// paginationFrom reads page, limit, sortBy and orderBy from the query string.
func paginationFrom(r *http.Request) (models.Pagination, error) {
	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), "page")
	if err != nil {
		return models.Pagination{}, err
	}
	limit, err := positiveInt(q.Get("limit"), "limit")
	if err != nil {
		return models.Pagination{}, err
	}
	p, err := models.NewPagination(page, limit, q.Get("sortBy"), q.Get("orderBy"))
	if err != nil {
		return models.Pagination{}, core.Validation("%s", err.Error())
	}
	return p, nil
}

// positiveInt returns 0 for an absent value so defaults apply.
func positiveInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, core.Validation("%s must be a positive integer", name)
	}
	return n, nil
}

func identity(r *http.Request) (models.Identity, error) {
	id, ok := appMiddleware.IdentityFrom(r.Context())
	if !ok {
		return models.Identity{}, core.Unauthorized("Missing authentication token")
	}
	return id, nil
}
