// Package respond writes JSON bodies and the error envelope shared by
// handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/core"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error":{"code","message"}}. Wrapped causes are
// logged, never sent to the client.
func Error(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	kind := core.KindOf(err)
	msg := core.MessageOf(err, "internal server error")
	status := StatusFor(kind)
	if log != nil && status >= http.StatusInternalServerError {
		log.WithError(err).WithField("status", status).Error("request failed")
	}
	JSON(w, status, errorBody{Error: errorDetail{Code: kind.String(), Message: msg}})
}

// TooManyRequests writes the rate limit envelope.
func TooManyRequests(w http.ResponseWriter) {
	JSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
		Code:    "rate_limited",
		Message: "Too many requests. Please try again later.",
	}})
}
