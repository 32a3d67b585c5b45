package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

var kindStatus = map[error]int{
	domain.ErrInvalidInput:    http.StatusBadRequest,
	domain.ErrInvoiceNotFound: http.StatusNotFound,
	domain.ErrConflict:        http.StatusConflict,
	domain.ErrTemporary:       http.StatusServiceUnavailable,
}

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
