package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, userID string) (*CourseResponse, error) {
	s.logger.Info("Creating course", "user_id", userID, "title", req.Title)

	if errs := s.validator.ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	evaluator := authz.NewEvaluator(authz.NewGraph())
	if allowed, _ := evaluator.Can(actor, authz.ActionCreate, authz.CourseRef(0), time.Now()); !allowed {
		return nil, NewPermissionError(userID, 0, "course", "create", "only instructors and admins can create courses")
	}

	course := &models.Course{
		UserID: userID,
		Title:  req.Title,
		Price:  req.Price,
	}
	if req.Description != "" {
		course.Description = &req.Description
	}
	if req.Thumbnail != "" {
		course.Thumbnail = &req.Thumbnail
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created successfully", "course_id", course.ID)
	return s.GetByID(ctx, course.ID, userID)
}

func (s *courseService) GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, id, actor, false)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionView, authz.CourseRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "course", "view", "course is not publicly visible")
	}

	course, err := s.repo.Course().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return s.buildResponse(ctx, course, actor, evaluator), nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, course, err := courseSnapshot(ctx, s.repo, nil, id, actor, false)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "course", "update", "not owner or admin")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Thumbnail != nil {
		course.Thumbnail = req.Thumbnail
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id, "user_id", userID)
	return s.GetByID(ctx, id, userID)
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, id, actor, true)
	if err != nil {
		return err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionDelete, authz.CourseRef(id), time.Now())
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, id, "course", "delete", "not owner, or course has enrollments")
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", userID)
	return nil
}

func (s *courseService) Restore(ctx context.Context, id uint, userID string) error {
	return s.moderate(ctx, id, userID, authz.ActionRestore, "restore", func() error {
		return s.repo.Course().Restore(ctx, nil, id)
	})
}

func (s *courseService) ForceDelete(ctx context.Context, id uint, userID string) error {
	return s.moderate(ctx, id, userID, authz.ActionForceDelete, "forceDelete", func() error {
		return s.repo.Course().ForceDelete(ctx, nil, id)
	})
}

// moderate shares the permission-then-mutate shape of restore and hard
// delete, which differ only in the repository call.
func (s *courseService) moderate(ctx context.Context, id uint, userID string, action authz.Action, name string, mutate func() error) error {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, id, actor, false)
	if err != nil {
		return err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, action, authz.CourseRef(id), time.Now())
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, id, "course", name, "not owner or admin")
	}

	if err := mutate(); err != nil {
		return fmt.Errorf("failed to %s course: %w", name, err)
	}
	s.logger.Info("Course moderation action applied", "course_id", id, "action", name, "user_id", userID)
	return nil
}

// ===== LIST AND SEARCH =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	// The public catalog shows only live courses unless an admin asks
	// otherwise.
	if actor == nil || actor.Role != authz.RoleAdmin {
		published, approved := true, true
		filters.IsPublished = &published
		filters.IsApproved = &approved
	}

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildListResponse(ctx, courses, total, filters.Limit, filters.Offset, actor), nil
}

func (s *courseService) GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	actor, err := loadActor(ctx, s.repo, instructorID)
	if err != nil {
		return nil, err
	}

	courses, total, err := s.repo.Course().GetByInstructor(ctx, nil, instructorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor courses: %w", err)
	}

	return s.buildListResponse(ctx, courses, total, filters.Limit, filters.Offset, actor), nil
}

func (s *courseService) Search(ctx context.Context, query string, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	// Search is public catalog only, regardless of role.
	published, approved := true, true
	filters.IsPublished = &published
	filters.IsApproved = &approved

	courses, total, err := s.repo.Course().Search(ctx, nil, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}

	return s.buildListResponse(ctx, courses, total, filters.Limit, filters.Offset, actor), nil
}

// ===== PUBLICATION WORKFLOW =====

func (s *courseService) Publish(ctx context.Context, id uint, userID string) error {
	return s.setPublished(ctx, id, userID, true)
}

func (s *courseService) Unpublish(ctx context.Context, id uint, userID string) error {
	return s.setPublished(ctx, id, userID, false)
}

func (s *courseService) setPublished(ctx context.Context, id uint, userID string, published bool) error {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, id, actor, false)
	if err != nil {
		return err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(id), time.Now())
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, id, "course", "publish", "not owner or admin")
	}

	if err := s.repo.Course().SetPublished(ctx, nil, id, published); err != nil {
		return fmt.Errorf("failed to set course publication state: %w", err)
	}

	s.logger.Info("Course publication state changed", "course_id", id, "published", published)
	return nil
}

// Approve is an admin gate; instructors cannot approve their own courses.
func (s *courseService) Approve(ctx context.Context, id uint, adminID string) error {
	actor, err := loadActor(ctx, s.repo, adminID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != authz.RoleAdmin {
		return NewPermissionError(adminID, id, "course", "approve", "admin role required")
	}

	if err := s.repo.Course().SetApproved(ctx, nil, id, true); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to approve course: %w", err)
	}

	s.logger.Info("Course approved", "course_id", id, "admin_id", adminID)
	return nil
}

// ===== REVIEWS =====

func (s *courseService) AddReview(ctx context.Context, courseID uint, req *CreateReviewRequest, userID string) (*models.Review, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	enrolled, err := s.repo.Enrollment().Exists(ctx, nil, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	existing, err := s.repo.Review().GetByCourseAndUser(ctx, nil, courseID, userID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	review := &models.Review{
		CourseID: courseID,
		UserID:   userID,
		Rating:   req.Rating,
	}
	if req.Comment != "" {
		review.Comment = &req.Comment
	}

	if err := s.repo.Review().Create(ctx, nil, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("Review created", "course_id", courseID, "user_id", userID, "rating", req.Rating)
	return review, nil
}

func (s *courseService) DeleteReview(ctx context.Context, reviewID uint, userID string) error {
	review, err := s.repo.Review().GetByID(ctx, nil, reviewID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	if review.UserID != userID && (actor == nil || actor.Role != authz.RoleAdmin) {
		return NewPermissionError(userID, reviewID, "review", "delete", "not the review author")
	}

	if err := s.repo.Review().Delete(ctx, nil, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *courseService) ListReviews(ctx context.Context, courseID uint, limit, offset int) ([]*models.Review, int64, error) {
	reviews, total, err := s.repo.Review().GetByCourse(ctx, nil, courseID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

// ===== STATISTICS =====

func (s *courseService) GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, id, actor, false)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "course", "stats", "not owner or admin")
	}

	stats, err := s.repo.Course().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

func (s *courseService) GetInstructorStats(ctx context.Context, instructorID string) (*repositories.InstructorStats, error) {
	stats, err := s.repo.Course().GetInstructorStats(ctx, nil, instructorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor stats: %w", err)
	}
	return stats, nil
}

// ===== RESPONSE BUILDING =====

func (s *courseService) buildResponse(ctx context.Context, course *models.Course, actor *authz.Actor, evaluator *authz.Evaluator) *CourseResponse {
	resp := &CourseResponse{Course: course}

	now := time.Now()
	resp.CanEdit, _ = evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(course.ID), now)
	resp.CanDelete, _ = evaluator.Can(actor, authz.ActionDelete, authz.CourseRef(course.ID), now)

	if actor != nil {
		enrolled, err := s.repo.Enrollment().Exists(ctx, nil, course.ID, actor.ID)
		if err != nil {
			s.logger.Warn("Enrollment lookup failed while building course response",
				"course_id", course.ID, "user_id", actor.ID, "error", err)
		}
		resp.Enrolled = enrolled
	}

	return resp
}

func (s *courseService) buildListResponse(ctx context.Context, courses []*models.Course, total int64, limit, offset int, actor *authz.Actor) *CourseListResponse {
	items := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		graph := authz.NewGraph().AddCourse(course)
		items = append(items, s.buildResponse(ctx, course, actor, authz.NewEvaluator(graph)))
	}

	page, size := pageFromOffset(limit, offset)
	return &CourseListResponse{
		Courses: items,
		Total:   total,
		Page:    page,
		Size:    size,
	}
}

func pageFromOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	return offset/limit + 1, limit
}
