package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/config"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
)

type HandlerManager struct {
	courseHandler      *CourseHandler
	lessonHandler      *LessonHandler
	quizHandler        *QuizHandler
	enrollmentHandler  *EnrollmentHandler
	promoHandler       *PromoHandler
	paymentHandler     *PaymentHandler
	certificateHandler *CertificateHandler
	userHandler        *UserHandler
	authMiddleware     *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:      NewCourseHandler(serviceManager.Course(), logger),
		lessonHandler:      NewLessonHandler(serviceManager.Lesson(), logger),
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), logger),
		enrollmentHandler:  NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		promoHandler:       NewPromoHandler(serviceManager.Promo(), logger),
		paymentHandler:     NewPaymentHandler(serviceManager.Payment(), logger),
		certificateHandler: NewCertificateHandler(serviceManager.Certificate(), logger),
		userHandler:        NewUserHandler(userRepo, logger),
		authMiddleware:     authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public routes. Browsing works anonymously; a valid token enriches the
	// responses with per-user fields.
	public := v1.Group("")
	public.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		public.GET("/courses", hm.courseHandler.ListCourses)
		public.GET("/courses/search", hm.courseHandler.SearchCourses)
		public.GET("/courses/:id", hm.courseHandler.GetCourse)
		public.GET("/courses/:id/lessons", hm.lessonHandler.GetCourseLessons)
		public.GET("/courses/:id/reviews", hm.courseHandler.ListReviews)
		public.GET("/lessons/:id", hm.lessonHandler.GetLesson)

		// Certificate verification by number needs no identity at all
		public.GET("/certificates/verify/:number", hm.certificateHandler.VerifyCertificate)
	}

	// Authenticated routes
	auth := v1.Group("")
	auth.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course management - Instructors and Admins
		courses := auth.Group("/courses")
		{
			courses.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.CreateCourse)
			courses.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.DeleteCourse)
			courses.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.PublishCourse)
			courses.POST("/:id/unpublish", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.UnpublishCourse)
			courses.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.GetCourseStats)

			// Approval is an admin gate; restore and hard delete stay with the
			// owner (ownership is enforced in the service)
			courses.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.courseHandler.ApproveCourse)
			courses.POST("/:id/restore", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.RestoreCourse)
			courses.DELETE("/:id/force", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.courseHandler.ForceDeleteCourse)

			// Reviews - any enrolled student
			courses.POST("/:id/reviews", hm.courseHandler.AddReview)

			// Enrollment management
			courses.POST("/:id/enroll", hm.enrollmentHandler.Enroll)
			courses.GET("/:id/enrollments", hm.enrollmentHandler.GetCourseEnrollments)
			courses.PUT("/:id/progress", hm.enrollmentHandler.UpdateProgress)
			courses.POST("/:id/complete", hm.enrollmentHandler.CompleteCourse)

			// Lesson ordering
			courses.PUT("/:id/lessons/reorder", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.ReorderLessons)

			courses.GET("/instructor/:instructor_id", hm.courseHandler.GetCoursesByInstructor)
		}

		// Review deletion lives off the course path because only the review ID is needed
		auth.DELETE("/reviews/:review_id", hm.courseHandler.DeleteReview)

		// Lesson management - Instructors and Admins
		lessons := auth.Group("/lessons")
		{
			lessons.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.CreateLesson)
			lessons.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.DeleteLesson)
			lessons.POST("/:id/restore", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.RestoreLesson)
			lessons.DELETE("/:id/force", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.lessonHandler.ForceDeleteLesson)

			// Quizzes attached to a lesson
			lessons.GET("/:id/quizzes", hm.quizHandler.GetLessonQuizzes)
			lessons.POST("/:id/quizzes/generate", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.GenerateQuiz)
		}

		// Quiz routes
		quizzes := auth.Group("/quizzes")
		{
			quizzes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/restore", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.RestoreQuiz)
			quizzes.DELETE("/:id/force", hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor), hm.quizHandler.ForceDeleteQuiz)

			// Attempts
			quizzes.POST("/:id/submit", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.quizHandler.SubmitQuiz)
			quizzes.GET("/:id/attempts", hm.quizHandler.GetQuizAttempts)
			quizzes.GET("/:id/can-submit", hm.quizHandler.CanSubmitQuiz)
		}

		// Enrollment routes
		enrollments := auth.Group("/enrollments")
		{
			enrollments.GET("/me", hm.enrollmentHandler.GetMyEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
		}

		// Promo code routes - administration is admin-gated inside the service,
		// validation is open to any signed-in shopper
		promos := auth.Group("/promo-codes")
		{
			promos.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.CreatePromo)
			promos.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.ListPromos)
			promos.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.GetPromo)
			promos.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.UpdatePromo)
			promos.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.DeletePromo)
			promos.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.promoHandler.GetPromoStats)

			promos.GET("/validate", hm.promoHandler.ValidatePromo)
		}

		// Payment routes
		payments := auth.Group("/payments")
		{
			payments.POST("/checkout", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.paymentHandler.Checkout)
			payments.POST("/donate", hm.paymentHandler.Donate)
			payments.GET("/transactions", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.paymentHandler.ListTransactions)
			payments.GET("/transactions/me", hm.paymentHandler.GetMyTransactions)
			payments.GET("/transactions/:id", hm.paymentHandler.GetTransaction)
			payments.POST("/transactions/:id/refund", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.paymentHandler.RefundTransaction)
		}

		// Instructor earnings
		earnings := auth.Group("/earnings")
		earnings.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor))
		{
			earnings.GET("/me", hm.paymentHandler.GetMyEarnings)
			earnings.GET("/me/export", hm.paymentHandler.ExportMyEarnings)
			earnings.GET("/me/stats", hm.courseHandler.GetMyInstructorStats)
		}

		// Certificate routes
		certificates := auth.Group("/certificates")
		{
			certificates.GET("/me", hm.certificateHandler.GetMyCertificates)
			certificates.GET("/:id", hm.certificateHandler.GetCertificate)
			certificates.GET("/:id/download", hm.certificateHandler.DownloadCertificate)
			certificates.POST("/:id/regenerate", hm.certificateHandler.RegenerateCertificate)
		}

		// User routes
		users := auth.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})
}
