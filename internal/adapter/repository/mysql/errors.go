package mysql

import (
	"errors"

	"gorm.io/gorm"
)

// notFound swaps gorm's not-found sentinel for the domain one and passes
// every other error through.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
