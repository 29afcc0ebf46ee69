package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record was absent, covering
// both our sentinel and gorm's.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ErrPromoExhausted is returned by IncrementUsage when the code's usage cap
// has been reached.
var ErrPromoExhausted = errors.New("promo code usage limit reached")

// ErrDuplicateEnrollment is returned when a student is already enrolled in
// the course.
var ErrDuplicateEnrollment = errors.New("student already enrolled")
