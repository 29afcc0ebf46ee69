package services

import (
	"context"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type SubmitQuizRequest = validator.QuizSubmitRequest
type CreateReviewRequest = validator.ReviewCreateRequest
type CreatePromoRequest = validator.PromoCreateRequest
type UpdatePromoRequest = validator.PromoUpdateRequest
type CheckoutRequest = validator.CheckoutRequest
type DonationRequest = validator.DonationRequest

type CourseResponse struct {
	*models.Course
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	Enrolled  bool `json:"enrolled"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type QuizResponse struct {
	*models.Quiz
	CanSubmit bool `json:"can_submit"`
}

type AttemptResponse struct {
	*models.QuizAttempt
	RemainingToPass float64 `json:"remaining_to_pass,omitempty"`
}

type EnrollmentResponse struct {
	*models.Enrollment
	CertificateID *uint `json:"certificate_id,omitempty"`
}

type PromoPreviewResponse struct {
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

type CheckoutResponse struct {
	Transaction    *models.Transaction `json:"transaction"`
	DiscountAmount float64             `json:"discount_amount"`
	FinalAmount    float64             `json:"final_amount"`
}

type TransactionResponse struct {
	*models.Transaction
	EffectiveType models.TransactionType `json:"effective_type"`
}

type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	Size         int                    `json:"size"`
}

type EarningsReport struct {
	InstructorID string                      `json:"instructor_id"`
	From         *time.Time                  `json:"from,omitempty"`
	To           *time.Time                  `json:"to,omitempty"`
	Rows         []*repositories.EarningsRow `json:"rows"`
	TotalGross   float64                     `json:"total_gross"`
	TotalNet     float64                     `json:"total_net"`
}

type CertificateResponse struct {
	*models.Certificate
	Ready bool `json:"ready"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, userID string) (*CourseResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	Restore(ctx context.Context, id uint, userID string) error
	ForceDelete(ctx context.Context, id uint, userID string) error

	// List and search operations
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)
	GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error)
	Search(ctx context.Context, query string, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)

	// Publication workflow
	Publish(ctx context.Context, id uint, userID string) error
	Unpublish(ctx context.Context, id uint, userID string) error
	Approve(ctx context.Context, id uint, adminID string) error

	// Reviews
	AddReview(ctx context.Context, courseID uint, req *CreateReviewRequest, userID string) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID uint, userID string) error
	ListReviews(ctx context.Context, courseID uint, limit, offset int) ([]*models.Review, int64, error)

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error)
	GetInstructorStats(ctx context.Context, instructorID string) (*repositories.InstructorStats, error)
}

type LessonService interface {
	Create(ctx context.Context, req *CreateLessonRequest, userID string) (*models.Lesson, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Lesson, error)
	Update(ctx context.Context, id uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error)
	Delete(ctx context.Context, id uint, userID string) error
	Restore(ctx context.Context, id uint, userID string) error
	ForceDelete(ctx context.Context, id uint, userID string) error

	GetByCourse(ctx context.Context, courseID uint, userID string) ([]*models.Lesson, error)
	Reorder(ctx context.Context, courseID uint, lessonIDs []uint, userID string) error
}

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, userID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	Restore(ctx context.Context, id uint, userID string) error
	ForceDelete(ctx context.Context, id uint, userID string) error

	GetByLesson(ctx context.Context, lessonID uint, userID string) ([]*QuizResponse, error)
	Generate(ctx context.Context, lessonID uint, userID string) (*QuizResponse, error)

	// Attempts
	Submit(ctx context.Context, quizID uint, req *SubmitQuizRequest, studentID string) (*AttemptResponse, error)
	GetAttempts(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error)
	CanSubmit(ctx context.Context, quizID uint, studentID string) (bool, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uint, userID string) (*EnrollmentResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*EnrollmentResponse, error)
	GetMyEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error)
	GetCourseEnrollments(ctx context.Context, courseID uint, userID string) ([]*models.Enrollment, error)

	UpdateProgress(ctx context.Context, courseID uint, userID string, progress float64) (*EnrollmentResponse, error)
	Complete(ctx context.Context, courseID uint, userID string) (*EnrollmentResponse, error)
}

type PromoService interface {
	Create(ctx context.Context, req *CreatePromoRequest, userID string) (*models.PromoCode, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.PromoCode, error)
	Update(ctx context.Context, id uint, req *UpdatePromoRequest, userID string) (*models.PromoCode, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.PromoCodeFilters, userID string) ([]*models.PromoCode, int64, error)

	// Validate checks a code against a cart value without consuming a use
	Validate(ctx context.Context, code string, cartValue float64) (*PromoPreviewResponse, error)

	// Redeem consumes one use inside the caller's transaction. The returned
	// promo row reflects the state read inside that transaction.
	Redeem(ctx context.Context, repo repositories.Repository, code string, cartValue float64) (*models.PromoCode, float64, error)

	GetStats(ctx context.Context, id uint, userID string) (*repositories.PromoCodeStats, error)
}

type PaymentService interface {
	Checkout(ctx context.Context, req *CheckoutRequest, userID string) (*CheckoutResponse, error)
	Donate(ctx context.Context, req *DonationRequest, userID string) (*models.Donation, error)
	Refund(ctx context.Context, transactionID uint, userID string) (*models.Transaction, error)

	GetByID(ctx context.Context, id uint, userID string) (*TransactionResponse, error)
	ListMine(ctx context.Context, userID string, filters repositories.TransactionFilters) (*TransactionListResponse, error)
	List(ctx context.Context, filters repositories.TransactionFilters, adminID string) (*TransactionListResponse, error)

	GetInstructorEarnings(ctx context.Context, instructorID string, from, to *time.Time) (*EarningsReport, error)
	ExportInstructorEarnings(ctx context.Context, instructorID string, from, to *time.Time) ([]byte, error)
}

type CertificateService interface {
	GetByID(ctx context.Context, id uint, userID string) (*CertificateResponse, error)
	GetByNumber(ctx context.Context, number string) (*CertificateResponse, error)
	GetMyCertificates(ctx context.Context, userID string) ([]*CertificateResponse, error)

	// IssueForEnrollment creates the certificate row if missing and renders
	// the artifact. Safe to call repeatedly.
	IssueForEnrollment(ctx context.Context, enrollmentID uint) (*models.Certificate, error)
	Regenerate(ctx context.Context, id uint, userID string) (*CertificateResponse, error)
	ProcessPending(ctx context.Context, limit int) (int, error)

	// Start subscribes to enrollment completion events until ctx is cancelled
	Start(ctx context.Context) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Course() CourseService
	Lesson() LessonService
	Quiz() QuizService
	Enrollment() EnrollmentService
	Promo() PromoService
	Payment() PaymentService
	Certificate() CertificateService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
