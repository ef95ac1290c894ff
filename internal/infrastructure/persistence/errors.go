package persistence

import (
	"errors"

	"github.com/b2bshop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps driver level errors onto the shared domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}
