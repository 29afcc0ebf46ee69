package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

// ErrorResponse is the JSON shape for every non-2xx reply
type ErrorResponse struct {
	Error            string                     `json:"error"`
	Message          string                     `json:"message,omitempty"`
	Details          string                     `json:"details,omitempty"`
	ValidationErrors validator.ValidationErrors `json:"validation_errors,omitempty"`
}

// SuccessResponse wraps payloads that carry no natural top-level object
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler needs
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when middleware attached one
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// parseIDParam reads a uint path parameter. On failure it writes the 400
// response itself and returns 0, so callers just bail out on zero.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// requireUserID pulls the authenticated user's ID out of the context. The
// auth middleware sets it; a missing value means the route was wired without
// authentication by mistake.
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "user not authenticated",
		})
		return "", false
	}
	return userID, true
}

// parsePagination reads limit/offset query parameters with sane bounds
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// handleServiceError translates service-layer errors into HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:            "validation_failed",
			Message:          "request validation failed",
			ValidationErrors: validationErrs,
		})
		return
	}

	if services.IsPermissionError(err) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
		return
	}

	switch {
	case isNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case isConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case isUnprocessable(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "unprocessable",
			Message: err.Error(),
		})
	default:
		utils.GetLogger(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
	}
}

func isNotFound(err error) bool {
	for _, target := range []error{
		services.ErrCourseNotFound,
		services.ErrLessonNotFound,
		services.ErrQuizNotFound,
		services.ErrEnrollmentNotFound,
		services.ErrReviewNotFound,
		services.ErrPromoNotFound,
		services.ErrTransactionNotFound,
		services.ErrCertificateNotFound,
		services.ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, target := range []error{
		services.ErrAlreadyEnrolled,
		services.ErrAlreadyReviewed,
		services.ErrAlreadyPurchased,
		services.ErrDuplicateCode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUnprocessable(err error) bool {
	for _, target := range []error{
		services.ErrCourseNotLive,
		services.ErrCourseNotFree,
		services.ErrCourseFree,
		services.ErrCourseNotCompleted,
		services.ErrNotEnrolled,
		services.ErrOwnCoursePurchase,
		services.ErrPromoNotApplicable,
		services.ErrPromoExhausted,
		services.ErrQuizClosed,
		services.ErrQuizAlreadyPassed,
		services.ErrCertificatePending,
		services.ErrRefundNotPermitted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
