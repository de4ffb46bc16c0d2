package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request ID; the client receives
// the coded message from core.MapError.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// errUnknownLayout is wrapped with the requested key.
var errUnknownLayout = errors.New("unknown layout")

// errNoFile is returned when a multipart request has no "file" part.
var errNoFile = errors.New("no file provided")

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

func newErrorResponse(err error, line int) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Line:    line,
	}
}

// respondError logs err and writes the mapped message with the status
// derived from the error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := newErrorResponse(err, 0)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", resp.Code,
	)
	writeJSON(w, status, resp)
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errUnknownLayout):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyPasses):
		return http.StatusServiceUnavailable
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidConfig), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case core.IsStructural(err), strings.Contains(err.Error(), "encoding"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
