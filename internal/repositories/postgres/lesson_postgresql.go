package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

// Create appends the lesson at the end of the course's ordering when no
// explicit position is given.
func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	db := l.getDB(tx).WithContext(ctx)

	if lesson.Order == 0 {
		var maxOrder *int
		if err := db.Model(&models.Lesson{}).
			Select("MAX(sort_order)").
			Where("course_id = ?", lesson.CourseID).
			Scan(&maxOrder).Error; err != nil {
			return fmt.Errorf("failed to determine lesson order: %w", err)
		}
		if maxOrder != nil {
			lesson.Order = *maxOrder + 1
		} else {
			lesson.Order = 1
		}
	}

	if err := db.Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	err := l.getDB(tx).WithContext(ctx).First(&lesson, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	err := l.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("id = ?", lesson.ID).
		Updates(map[string]interface{}{
			"title":     lesson.Title,
			"content":   lesson.Content,
			"video_url": lesson.VideoURL,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := l.getDB(tx).WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (l *LessonPostgreSQL) Restore(ctx context.Context, tx *gorm.DB, id uint) error {
	result := l.getDB(tx).WithContext(ctx).
		Unscoped().
		Model(&models.Lesson{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to restore lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (l *LessonPostgreSQL) ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := l.getDB(tx).WithContext(ctx).Unscoped().Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to force delete lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// GetByCourse returns a course's lessons in display order
func (l *LessonPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// Reorder rewrites sort_order to match the given lesson ID sequence.
// IDs not belonging to the course are ignored by the WHERE clause.
func (l *LessonPostgreSQL) Reorder(ctx context.Context, tx *gorm.DB, courseID uint, lessonIDs []uint) error {
	db := l.getDB(tx).WithContext(ctx)
	for i, lessonID := range lessonIDs {
		err := db.Model(&models.Lesson{}).
			Where("id = ? AND course_id = ?", lessonID, courseID).
			Update("sort_order", i+1).Error
		if err != nil {
			return fmt.Errorf("failed to reorder lesson %d: %w", lessonID, err)
		}
	}
	return nil
}

func (l *LessonPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	err := l.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}
