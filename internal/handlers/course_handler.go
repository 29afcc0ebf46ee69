package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// CreateCourse creates a new course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course by ID. Anonymous callers see live courses only.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	// Optional auth: an empty user ID means an anonymous viewer
	userID, _ := GetUserIDFromContext(c)

	course, err := h.courseService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse updates an existing course
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse soft-deletes a course
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "course deleted"})
}

// RestoreCourse restores a soft-deleted course (admin only)
func (h *CourseHandler) RestoreCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.Restore(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "course restored"})
}

// ForceDeleteCourse permanently removes a course (admin only)
func (h *CourseHandler) ForceDeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.ForceDelete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "course permanently deleted"})
}

// ListCourses lists courses with filters and pagination
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, _ := GetUserIDFromContext(c)
	filters := h.parseCourseFilters(c)

	courses, err := h.courseService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// SearchCourses searches live courses by title and description
func (h *CourseHandler) SearchCourses(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "query parameter q is required",
		})
		return
	}

	userID, _ := GetUserIDFromContext(c)
	filters := h.parseCourseFilters(c)

	courses, err := h.courseService.Search(c.Request.Context(), query, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCoursesByInstructor lists an instructor's courses
func (h *CourseHandler) GetCoursesByInstructor(c *gin.Context) {
	instructorID := c.Param("instructor_id")
	if instructorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "instructor_id parameter is required",
		})
		return
	}

	filters := h.parseCourseFilters(c)
	courses, err := h.courseService.GetByInstructor(c.Request.Context(), instructorID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// PublishCourse makes a course visible to students
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	h.setPublication(c, h.courseService.Publish, "course published")
}

// UnpublishCourse hides a course from students
func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	h.setPublication(c, h.courseService.Unpublish, "course unpublished")
}

// ApproveCourse marks a course as approved (admin only)
func (h *CourseHandler) ApproveCourse(c *gin.Context) {
	h.setPublication(c, h.courseService.Approve, "course approved")
}

// AddReview adds a review to a course the caller is enrolled in
func (h *CourseHandler) AddReview(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	review, err := h.courseService.AddReview(c.Request.Context(), courseID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// DeleteReview removes a review written by the caller (or any review, for admins)
func (h *CourseHandler) DeleteReview(c *gin.Context) {
	reviewID := h.parseIDParam(c, "review_id")
	if reviewID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.DeleteReview(c.Request.Context(), reviewID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "review deleted"})
}

// ListReviews lists a course's reviews
func (h *CourseHandler) ListReviews(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	reviews, total, err := h.courseService.ListReviews(c.Request.Context(), courseID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"total":   total,
	})
}

// GetCourseStats returns per-course statistics for the owner or an admin
func (h *CourseHandler) GetCourseStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.courseService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMyInstructorStats returns aggregate statistics for the calling instructor
func (h *CourseHandler) GetMyInstructorStats(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.courseService.GetInstructorStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *CourseHandler) setPublication(c *gin.Context, op func(ctx context.Context, id uint, userID string) error, message string) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func (h *CourseHandler) parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	limit, offset := h.parsePagination(c)
	filters := repositories.CourseFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if v := c.Query("instructor_id"); v != "" {
		filters.InstructorID = &v
	}
	if v := c.Query("is_published"); v != "" {
		published := v == "true"
		filters.IsPublished = &published
	}
	if v := c.Query("is_approved"); v != "" {
		approved := v == "true"
		filters.IsApproved = &approved
	}
	if v := c.Query("price_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMin = &f
		}
	}
	if v := c.Query("price_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMax = &f
		}
	}
	return filters
}
