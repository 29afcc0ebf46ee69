package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/cache"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a new course and invalidates instructor listings
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("instructor:%s:*", course.UserID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).First(&dbCourse, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithDetails retrieves a course with instructor, lessons, and rating
func (c *CoursePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).
			Preload("Instructor").
			Preload("Lessons", func(db *gorm.DB) *gorm.DB {
				return db.Order("lessons.sort_order ASC")
			}).
			First(&dbCourse, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get course details: %w", err)
		}

		if err := c.fillComputedFields(ctx, tx, &dbCourse); err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (c *CoursePostgreSQL) fillComputedFields(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx).WithContext(ctx)

	var enrollments int64
	if err := db.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrollments).Error; err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrollmentCount = int(enrollments)
	course.LessonCount = len(course.Lessons)

	var avg *float64
	if err := db.Model(&models.Review{}).
		Select("AVG(rating)").
		Where("course_id = ?", course.ID).
		Scan(&avg).Error; err != nil {
		return fmt.Errorf("failed to average rating: %w", err)
	}
	if avg != nil {
		course.AvgRating = *avg
	}

	return nil
}

// Update updates mutable course fields and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"price":       course.Price,
			"thumbnail":   course.Thumbnail,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, course.UserID)
	return nil
}

// Delete soft deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d*", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// Restore reverses a soft delete
func (c *CoursePostgreSQL) Restore(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).
		Unscoped().
		Model(&models.Course{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to restore course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// ForceDelete permanently removes a course
func (c *CoursePostgreSQL) ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := c.getDB(tx).WithContext(ctx).Unscoped().Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to force delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d*", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// List returns courses matching the filters plus the unpaginated total
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Preload("Instructor").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

// GetByInstructor returns an instructor's courses
func (c *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return c.List(ctx, tx, filters)
}

// Search does a title and description search over courses
func (c *CoursePostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.Search = &query
	return c.List(ctx, tx, filters)
}

// SetPublished toggles the instructor-facing publish flag
func (c *CoursePostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	return c.setFlag(ctx, tx, id, "is_published", published)
}

// SetApproved toggles the admin moderation flag
func (c *CoursePostgreSQL) SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error {
	return c.setFlag(ctx, tx, id, "is_approved", approved)
}

func (c *CoursePostgreSQL) setFlag(ctx context.Context, tx *gorm.DB, id uint, column string, value bool) error {
	result := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update course %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d*", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// GetStats aggregates per-course numbers, cached under the stats prefix
func (c *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.CourseStats, error) {
	cacheKey := fmt.Sprintf("course:%d:stats", id)
	var stats repositories.CourseStats

	err := c.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := c.getDB(tx).WithContext(ctx)
		var result repositories.CourseStats

		var enrollments, completions, lessons, reviews int64
		if err := db.Model(&models.Enrollment{}).Where("course_id = ?", id).Count(&enrollments).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Enrollment{}).Where("course_id = ? AND completed_at IS NOT NULL", id).Count(&completions).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Lesson{}).Where("course_id = ?", id).Count(&lessons).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Review{}).Where("course_id = ?", id).Count(&reviews).Error; err != nil {
			return nil, err
		}

		var avg *float64
		if err := db.Model(&models.Review{}).Select("AVG(rating)").Where("course_id = ?", id).Scan(&avg).Error; err != nil {
			return nil, err
		}
		var revenue *float64
		if err := db.Model(&models.Transaction{}).
			Select("SUM(amount)").
			Where("course_id = ? AND status = ?", id, models.TransactionCompleted).
			Scan(&revenue).Error; err != nil {
			return nil, err
		}

		result.EnrollmentCount = int(enrollments)
		result.CompletionCount = int(completions)
		result.LessonCount = int(lessons)
		result.ReviewCount = int(reviews)
		if avg != nil {
			result.AverageRating = *avg
		}
		if revenue != nil {
			result.TotalRevenue = *revenue
		}
		return &result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}

	return &stats, nil
}

// GetInstructorStats aggregates an instructor's portfolio numbers
func (c *CoursePostgreSQL) GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID string) (*repositories.InstructorStats, error) {
	db := c.getDB(tx).WithContext(ctx)
	var stats repositories.InstructorStats

	var total, published int64
	if err := db.Model(&models.Course{}).Where("user_id = ?", instructorID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	if err := db.Model(&models.Course{}).Where("user_id = ? AND is_published = ?", instructorID, true).Count(&published).Error; err != nil {
		return nil, fmt.Errorf("failed to count published courses: %w", err)
	}

	var students int64
	if err := db.Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.user_id = ?", instructorID).
		Distinct("enrollments.user_id").
		Count(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	var earnings *float64
	if err := db.Model(&models.Transaction{}).
		Select("SUM(transactions.instructor_amount)").
		Joins("JOIN courses ON courses.id = transactions.course_id").
		Where("courses.user_id = ? AND transactions.status = ?", instructorID, models.TransactionCompleted).
		Scan(&earnings).Error; err != nil {
		return nil, fmt.Errorf("failed to sum earnings: %w", err)
	}

	var avg *float64
	if err := db.Model(&models.Review{}).
		Select("AVG(reviews.rating)").
		Joins("JOIN courses ON courses.id = reviews.course_id").
		Where("courses.user_id = ?", instructorID).
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average instructor rating: %w", err)
	}

	stats.TotalCourses = int(total)
	stats.PublishedCourses = int(published)
	stats.TotalStudents = int(students)
	if earnings != nil {
		stats.TotalEarnings = *earnings
	}
	if avg != nil {
		stats.AverageRating = *avg
	}

	return &stats, nil
}

// HasEnrollments reports whether any student is enrolled in the course
func (c *CoursePostgreSQL) HasEnrollments(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	count, err := NewSharedHelpers(c.getDB(tx)).CountEnrollments(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollments: %w", err)
	}
	return count > 0, nil
}

// IsOwnedBy reports whether the course belongs to the given user
func (c *CoursePostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, userID string) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}
	return count > 0, nil
}
