package repositories

import "context"

// Repository aggregates all sub-repository interfaces behind one handle.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Lesson() LessonRepository
	Enrollment() EnrollmentRepository
	Review() ReviewRepository

	// Quiz domain
	Quiz() QuizRepository
	QuizAttempt() QuizAttemptRepository

	// Commerce domain
	PromoCode() PromoCodeRepository
	Transaction() TransactionRepository
	Donation() DonationRepository

	// Certificate domain
	Certificate() CertificateRepository

	// User domain
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
