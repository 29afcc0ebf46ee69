package repositories

import (
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	InstructorID *string  `json:"instructor_id"`
	IsPublished  *bool    `json:"is_published"`
	IsApproved   *bool    `json:"is_approved"`
	Search       *string  `json:"search"`
	PriceMin     *float64 `json:"price_min"`
	PriceMax     *float64 `json:"price_max"`
	Limit        int      `json:"limit"`
	Offset       int      `json:"offset"`
	SortBy       string   `json:"sort_by"`    // "created_at", "title", "price"
	SortOrder    string   `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	CourseID  *uint      `json:"course_id"`
	UserID    *string    `json:"user_id"`
	Completed *bool      `json:"completed"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

type TransactionFilters struct {
	UserID    *string                   `json:"user_id"`
	CourseID  *uint                     `json:"course_id"`
	Status    *models.TransactionStatus `json:"status"`
	Type      *models.TransactionType   `json:"type"`
	DateFrom  *time.Time                `json:"date_from"`
	DateTo    *time.Time                `json:"date_to"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
	SortBy    string                    `json:"sort_by"`
	SortOrder string                    `json:"sort_order"`
}

type PromoCodeFilters struct {
	IsActive  *bool   `json:"is_active"`
	CreatedBy *string `json:"created_by"`
	Search    *string `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

type AttemptFilters struct {
	QuizID    *uint   `json:"quiz_id"`
	StudentID *string `json:"student_id"`
	Passed    *bool   `json:"passed"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type CourseStats struct {
	EnrollmentCount int     `json:"enrollment_count"`
	CompletionCount int     `json:"completion_count"`
	LessonCount     int     `json:"lesson_count"`
	ReviewCount     int     `json:"review_count"`
	AverageRating   float64 `json:"average_rating"`
	TotalRevenue    float64 `json:"total_revenue"`
}

type InstructorStats struct {
	TotalCourses     int     `json:"total_courses"`
	PublishedCourses int     `json:"published_courses"`
	TotalStudents    int     `json:"total_students"`
	TotalEarnings    float64 `json:"total_earnings"`
	AverageRating    float64 `json:"average_rating"`
}

// EarningsRow is one line of an instructor earnings report, grouped by course.
type EarningsRow struct {
	CourseID         uint    `json:"course_id"`
	CourseTitle      string  `json:"course_title"`
	Sales            int     `json:"sales"`
	GrossAmount      float64 `json:"gross_amount"`
	InstructorAmount float64 `json:"instructor_amount"`
}

type PromoCodeStats struct {
	TotalRedemptions int     `json:"total_redemptions"`
	TotalDiscount    float64 `json:"total_discount"`
	RemainingUses    *int    `json:"remaining_uses"`
}
