package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.Publisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, publisher events.Publisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Enroll places a student into a live course. Free courses enroll directly;
// paid courses require a completed purchase first. Enrolling twice is not an
// error and returns the existing row.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, userID string) (*EnrollmentResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != authz.RoleStudent {
		return nil, NewPermissionError(userID, courseID, "enrollment", "create", "student role required")
	}

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !course.IsPublished || !course.IsApproved {
		return nil, ErrCourseNotLive
	}
	if course.UserID == userID {
		return nil, ErrOwnCoursePurchase
	}

	if existing, err := s.repo.Enrollment().GetByCourseAndUser(ctx, nil, courseID, userID); err == nil {
		return s.buildResponse(ctx, existing), nil
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if course.Price > 0 {
		purchased, err := s.repo.Transaction().HasPurchased(ctx, nil, userID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check purchase: %w", err)
		}
		if !purchased {
			return nil, ErrCourseNotFree
		}
	}

	enrollment := &models.Enrollment{
		CourseID: courseID,
		UserID:   userID,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		// A concurrent enroll can win the race; surface the winner's row.
		if errors.Is(err, repositories.ErrDuplicateEnrollment) {
			if existing, getErr := s.repo.Enrollment().GetByCourseAndUser(ctx, nil, courseID, userID); getErr == nil {
				return s.buildResponse(ctx, existing), nil
			}
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Student enrolled", "course_id", courseID, "user_id", userID)
	return s.buildResponse(ctx, enrollment), nil
}

func (s *enrollmentService) GetByID(ctx context.Context, id uint, userID string) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.UserID != userID {
		allowed, err := s.canViewCourseEnrollments(ctx, enrollment.CourseID, userID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, NewPermissionError(userID, id, "enrollment", "view", "not the enrolled student or course owner")
		}
	}

	return s.buildResponse(ctx, enrollment), nil
}

func (s *enrollmentService) GetMyEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, s.buildResponse(ctx, enrollment))
	}
	return responses, nil
}

func (s *enrollmentService) GetCourseEnrollments(ctx context.Context, courseID uint, userID string) ([]*models.Enrollment, error) {
	allowed, err := s.canViewCourseEnrollments(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, courseID, "enrollment", "list", "not the course owner")
	}

	enrollments, err := s.repo.Enrollment().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress records lesson progress for the caller's own enrollment.
// Reaching 100 percent completes the course.
func (s *enrollmentService) UpdateProgress(ctx context.Context, courseID uint, userID string, progress float64) (*EnrollmentResponse, error) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndUser(ctx, nil, courseID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	// Completion is terminal; progress never moves after it.
	if enrollment.CompletedAt != nil {
		return s.buildResponse(ctx, enrollment), nil
	}

	if progress >= 100 {
		return s.Complete(ctx, courseID, userID)
	}

	if err := s.repo.Enrollment().UpdateProgress(ctx, nil, enrollment.ID, progress); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	enrollment.Progress = progress

	return s.buildResponse(ctx, enrollment), nil
}

// Complete marks the enrollment finished and announces it. Certificate
// issuance is asynchronous: the certificate worker reacts to the event, so a
// publish failure here only delays the certificate until the next sweep.
func (s *enrollmentService) Complete(ctx context.Context, courseID uint, userID string) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByCourseAndUser(ctx, nil, courseID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	alreadyCompleted := enrollment.CompletedAt != nil
	if !alreadyCompleted {
		if err := s.repo.Enrollment().MarkCompleted(ctx, nil, enrollment.ID); err != nil {
			return nil, fmt.Errorf("failed to mark enrollment completed: %w", err)
		}
		now := time.Now()
		enrollment.CompletedAt = &now
		enrollment.Progress = 100

		s.logger.Info("Enrollment completed", "enrollment_id", enrollment.ID, "course_id", courseID, "user_id", userID)
		s.announceCompletion(ctx, enrollment)
	}

	return s.buildResponse(ctx, enrollment), nil
}

func (s *enrollmentService) announceCompletion(ctx context.Context, enrollment *models.Enrollment) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(events.TypeEnrollmentCompleted, events.EnrollmentCompletedPayload{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		UserID:       enrollment.UserID,
	})
	if err != nil {
		s.logger.Error("Failed to build completion event", "enrollment_id", enrollment.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish completion event", "enrollment_id", enrollment.ID, "error", err)
	}
}

func (s *enrollmentService) canViewCourseEnrollments(ctx context.Context, courseID uint, userID string) (bool, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	if actor.Role == authz.RoleAdmin {
		return true, nil
	}
	owned, err := s.repo.Course().IsOwnedBy(ctx, nil, courseID, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrCourseNotFound
		}
		return false, err
	}
	return owned, nil
}

func (s *enrollmentService) buildResponse(ctx context.Context, enrollment *models.Enrollment) *EnrollmentResponse {
	resp := &EnrollmentResponse{Enrollment: enrollment}

	if enrollment.CompletedAt != nil {
		cert, err := s.repo.Certificate().GetByEnrollment(ctx, nil, enrollment.ID)
		if err == nil {
			resp.CertificateID = &cert.ID
		} else if !repositories.IsNotFoundError(err) {
			s.logger.Warn("Certificate lookup failed", "enrollment_id", enrollment.ID, "error", err)
		}
	}

	return resp
}
