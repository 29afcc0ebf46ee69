package validator

import (
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,course_title"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Price       float64 `json:"price" validate:"course_price"`
	Thumbnail   string  `json:"thumbnail" validate:"omitempty,url"`
}

// CourseUpdateRequest represents the request structure for updating courses
type CourseUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,course_title"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,course_price"`
	Thumbnail   *string  `json:"thumbnail" validate:"omitempty,url"`
}

// LessonCreateRequest represents adding a lesson to a course
type LessonCreateRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Content  string `json:"content" validate:"omitempty,max=50000"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Order    int    `json:"order" validate:"omitempty,min=1"`
}

// LessonUpdateRequest represents updating a lesson
type LessonUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string `json:"content" validate:"omitempty,max=50000"`
	VideoURL *string `json:"video_url" validate:"omitempty,url"`
}

// QuizCreateRequest represents creating a quiz under a lesson
type QuizCreateRequest struct {
	LessonID     uint        `json:"lesson_id" validate:"required"`
	Title        string      `json:"title" validate:"required,min=1,max=200"`
	Description  string      `json:"description" validate:"omitempty,max=2000"`
	DueDate      *time.Time  `json:"due_date" validate:"omitempty,future_date"`
	PassingScore int         `json:"passing_score" validate:"passing_score"`
	Questions    interface{} `json:"questions" validate:"required"`
}

// QuizUpdateRequest represents updating a quiz
type QuizUpdateRequest struct {
	Title        *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string     `json:"description" validate:"omitempty,max=2000"`
	DueDate      *time.Time  `json:"due_date"`
	PassingScore *int        `json:"passing_score" validate:"omitempty,passing_score"`
	Questions    interface{} `json:"questions"`
}

// QuizSubmitRequest represents a student submitting quiz answers
type QuizSubmitRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required,min=1"`
}

// ReviewCreateRequest represents posting a course review
type ReviewCreateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// PromoCreateRequest represents the request structure for creating promo codes
type PromoCreateRequest struct {
	Code          string              `json:"code" validate:"required,promo_code"`
	DiscountType  models.DiscountType `json:"discount_type" validate:"required,discount_type"`
	DiscountValue float64             `json:"discount_value" validate:"required,gt=0"`
	StartDate     *time.Time          `json:"start_date"`
	EndDate       *time.Time          `json:"end_date"`
	MaxUses       *int                `json:"max_uses" validate:"omitempty,min=1"`
	MinCartValue  float64             `json:"min_cart_value" validate:"omitempty,gte=0"`
}

// PromoUpdateRequest represents updating a promo code
type PromoUpdateRequest struct {
	DiscountType  *models.DiscountType `json:"discount_type" validate:"omitempty,discount_type"`
	DiscountValue *float64             `json:"discount_value" validate:"omitempty,gt=0"`
	StartDate     *time.Time           `json:"start_date"`
	EndDate       *time.Time           `json:"end_date"`
	MaxUses       *int                 `json:"max_uses" validate:"omitempty,min=1"`
	MinCartValue  *float64             `json:"min_cart_value" validate:"omitempty,gte=0"`
	IsActive      *bool                `json:"is_active"`
}

// CheckoutRequest represents purchasing a course
type CheckoutRequest struct {
	CourseID  uint    `json:"course_id" validate:"required"`
	PromoCode *string `json:"promo_code" validate:"omitempty,promo_code"`
}

// DonationRequest represents donating to a course
type DonationRequest struct {
	CourseID uint    `json:"course_id" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Message  string  `json:"message" validate:"omitempty,max=500"`
}
