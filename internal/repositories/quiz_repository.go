package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// QuizRepository interface for quiz operations
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithLesson(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	Restore(ctx context.Context, tx *gorm.DB, id uint) error
	ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByLesson(ctx context.Context, tx *gorm.DB, lessonID uint) ([]*models.Quiz, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error)
}

// QuizAttemptRepository interface for quiz attempt operations
type QuizAttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) ([]*models.QuizAttempt, error)
	GetLatest(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (*models.QuizAttempt, error)

	HasPassed(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (bool, error)
	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)
}
