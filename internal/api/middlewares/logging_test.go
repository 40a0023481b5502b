package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docflow/internal/logging"
	"github.com/markdave123-py/docflow/internal/models"
)

type statusCounter struct {
	statuses []int
}

func (c *statusCounter) RecordHTTPStatus(code int)         { c.statuses = append(c.statuses, code) }
func (c *statusCounter) RecordStatusTransition(string)      {}
func (c *statusCounter) RecordDispatch(bool, time.Duration) {}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "debug", "json")
	counter := &statusCounter{}

	guard, issuer := newGuard(t)
	tok, err := issuer.Issue(models.Identity{UserID: "u-9", Email: "a@example.com", Role: models.RoleViewer})
	require.NoError(t, err)

	h := RequestLogger(log, counter)(Authenticate(guard, log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("{}"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/find/123", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http_request", line["msg"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "/api/documents/find/123", line["path"])
	assert.Equal(t, "u-9", line["user_id"])
	assert.Equal(t, []int{http.StatusNotFound}, counter.statuses)
}

func TestRequestLoggerOmitsUserWhenUnauthenticated(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "debug", "json")
	guard, _ := newGuard(t)

	h := RequestLogger(log, nil)(Authenticate(guard, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/documents/find_my_documents", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(http.StatusUnauthorized), line["status"])
	assert.NotContains(t, line, "user_id")
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	w := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	_, _ = sr.Write([]byte("hi"))
	sr.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, sr.statusCode)
}
