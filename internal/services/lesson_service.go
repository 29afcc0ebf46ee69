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

type lessonService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewLessonService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator) LessonService {
	return &lessonService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *lessonService) Create(ctx context.Context, req *CreateLessonRequest, userID string) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, course, err := courseSnapshot(ctx, s.repo, nil, req.CourseID, actor, false)
	if err != nil {
		return nil, err
	}

	// Lesson creation is gated on updating the owning course rather than the
	// generic instructor check, so admins keep working and non-owners do not.
	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(course.ID), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, req.CourseID, "lesson", "create", "not the course owner")
	}

	lesson := &models.Lesson{
		CourseID: req.CourseID,
		Title:    req.Title,
		Order:    req.Order,
	}
	if req.Content != "" {
		lesson.Content = &req.Content
	}
	if req.VideoURL != "" {
		lesson.VideoURL = &req.VideoURL
	}

	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "course_id", req.CourseID)
	return lesson, nil
}

func (s *lessonService) GetByID(ctx context.Context, id uint, userID string) (*models.Lesson, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, lesson, err := lessonSnapshot(ctx, s.repo, nil, id, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionView, authz.LessonRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "lesson", "view", "enrollment required")
	}

	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, id uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	lesson, err := s.authorize(ctx, id, userID, authz.ActionUpdate, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("Lesson updated", "lesson_id", id, "user_id", userID)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionDelete, "delete"); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	s.logger.Info("Lesson deleted", "lesson_id", id, "user_id", userID)
	return nil
}

func (s *lessonService) Restore(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionRestore, "restore"); err != nil {
		return err
	}
	if err := s.repo.Lesson().Restore(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to restore lesson: %w", err)
	}
	return nil
}

func (s *lessonService) ForceDelete(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionForceDelete, "forceDelete"); err != nil {
		return err
	}
	if err := s.repo.Lesson().ForceDelete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to permanently delete lesson: %w", err)
	}
	return nil
}

func (s *lessonService) GetByCourse(ctx context.Context, courseID uint, userID string) ([]*models.Lesson, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, course, err := courseSnapshot(ctx, s.repo, nil, courseID, actor, false)
	if err != nil {
		return nil, err
	}

	// The lesson list is visible to anyone who can view the course; lesson
	// contents stay behind the per-lesson view check.
	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionView, authz.CourseRef(course.ID), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, courseID, "lesson", "list", "course is not publicly visible")
	}

	lessons, err := s.repo.Lesson().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *lessonService) Reorder(ctx context.Context, courseID uint, lessonIDs []uint, userID string) error {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	graph, _, err := courseSnapshot(ctx, s.repo, nil, courseID, actor, false)
	if err != nil {
		return err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionUpdate, authz.CourseRef(courseID), time.Now())
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, courseID, "lesson", "reorder", "not the course owner")
	}

	count, err := s.repo.Lesson().CountByCourse(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}
	if int64(len(lessonIDs)) != count {
		return fmt.Errorf("reorder must list every lesson of the course: got %d, course has %d", len(lessonIDs), count)
	}

	if err := s.repo.Lesson().Reorder(ctx, nil, courseID, lessonIDs); err != nil {
		return fmt.Errorf("failed to reorder lessons: %w", err)
	}

	s.logger.Info("Lessons reordered", "course_id", courseID, "count", len(lessonIDs))
	return nil
}

// authorize runs the lesson-level policy check and returns the loaded lesson.
func (s *lessonService) authorize(ctx context.Context, id uint, userID string, action authz.Action, name string) (*models.Lesson, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, lesson, err := lessonSnapshot(ctx, s.repo, nil, id, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, action, authz.LessonRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "lesson", name, "not the course owner")
	}
	return lesson, nil
}
