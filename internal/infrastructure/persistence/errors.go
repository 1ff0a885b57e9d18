package persistence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

func notFound(resource string) error {
	return shared.NewApiError(shared.CodeNotFound, resource+" not found")
}

// translate maps driver errors to domain errors. Record-not-found becomes
// NOT_FOUND for resource and unique violations become ALREADY_EXISTS.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.WrapApiError(shared.CodeAlreadyExists, resource+" already exists", err)
	default:
		return err
	}
}

func optimisticLockFailed(resource string) error {
	return shared.NewApiError(shared.CodeOptimisticLock, resource+" was modified by another request")
}

