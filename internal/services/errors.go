package services

import (
	"adspace/internal/store"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
)

// storeError translates a repository failure into the error returned to the
// caller. what names the record for not found messages.
func storeError(err error, what, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(what + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict(what + " already exists")
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal("failed to "+action, err)
}
