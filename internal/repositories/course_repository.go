package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// CourseRepository interface for course-specific operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Include instructor, lessons, rating
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	Restore(ctx context.Context, tx *gorm.DB, id uint) error
	ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters CourseFilters) ([]*models.Course, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters CourseFilters) ([]*models.Course, int64, error)

	// Moderation
	SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error
	SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*CourseStats, error)
	GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID string) (*InstructorStats, error)

	// Validation and checks
	HasEnrollments(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, userID string) (bool, error)
}

// LessonRepository interface for lesson operations
type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	Restore(ctx context.Context, tx *gorm.DB, id uint) error
	ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error)
	Reorder(ctx context.Context, tx *gorm.DB, courseID uint, lessonIDs []uint) error
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

// EnrollmentRepository interface for enrollment operations
type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error

	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Enrollment, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error)

	Exists(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (bool, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uint, progress float64) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uint) error
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

// ReviewRepository interface for course review operations
type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *models.Review) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Review, error)
	GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (*models.Review, error)
	Update(ctx context.Context, tx *gorm.DB, review *models.Review) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, limit, offset int) ([]*models.Review, int64, error)
	AverageRating(ctx context.Context, tx *gorm.DB, courseID uint) (float64, error)
}
