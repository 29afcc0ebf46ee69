package services

import (
	"errors"
	"fmt"
)

// Domain error sentinels
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrPromoNotFound       = errors.New("promo code not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrAlreadyReviewed     = errors.New("course already reviewed by this user")
	ErrNotEnrolled         = errors.New("not enrolled in this course")
	ErrCourseNotLive       = errors.New("course is not published and approved")
	ErrCourseNotFree       = errors.New("course requires purchase")
	ErrCourseFree          = errors.New("course is free, enroll directly")
	ErrCourseNotCompleted  = errors.New("course is not completed")
	ErrAlreadyPurchased    = errors.New("course already purchased")
	ErrOwnCoursePurchase   = errors.New("instructors cannot purchase their own course")
	ErrPromoNotApplicable  = errors.New("promo code is not applicable to this order")
	ErrPromoExhausted      = errors.New("promo code usage limit reached")
	ErrQuizClosed          = errors.New("quiz is no longer accepting submissions")
	ErrQuizAlreadyPassed   = errors.New("quiz already passed")
	ErrDuplicateCode       = errors.New("promo code already exists")
	ErrCertificatePending  = errors.New("certificate artifact not generated yet")
	ErrRefundNotPermitted  = errors.New("transaction cannot be refunded")
)

// PermissionError carries enough context to log and to build a 403 response
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error with context
func NewPermissionError(userID string, resourceID uint, resource, action, reason string) error {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a permission denial
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
