package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by usecases and adapters. Adapters translate them,
// for example to HTTP status codes; anything else is an internal failure.
var (
	// ErrInvoiceNotFound also covers invoices that belong to another owner.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvalidInput marks caller mistakes: empty uploads, unsupported files, bad material tables.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks a lifecycle transition the invoice's status does not allow.
	ErrConflict = errors.New("conflict")
	// ErrTemporary marks broker, database or recognizer outages worth retrying.
	ErrTemporary = errors.New("temporary failure")
)

var kinds = []error{ErrInvoiceNotFound, ErrInvalidInput, ErrConflict, ErrTemporary}

// WrapError tags err with a kind and the failing step, e.g. "reprocess invoice: conflict: ...".
func WrapError(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the first kind found in err's chain, or nil for untyped errors.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
