package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/certificates"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Logging configuration
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Service-specific configurations
	Course      ServiceConfig
	Lesson      ServiceConfig
	Quiz        ServiceConfig
	Enrollment  ServiceConfig
	Promo       ServiceConfig
	Payment     ServiceConfig
	Certificate ServiceConfig

	// Global settings
	DefaultTimeout         time.Duration
	InstructorRevenueShare float64
	RateLimitingRules      map[string]RateLimit
}

type ServiceConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration
	ValidationLevel ValidationLevel
	AuditingEnabled bool
}

type ValidationLevel int

const (
	ValidationBasic ValidationLevel = iota
	ValidationStrict
	ValidationFull
)

type RateLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

// Dependencies carries the infrastructure handles the services are wired
// with. Publisher and Subscriber may be nil in setups without an event bus;
// the services degrade to synchronous behavior.
type Dependencies struct {
	Publisher            events.Publisher
	Subscriber           events.Subscriber
	CertificateGenerator *certificates.Generator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	deps      Dependencies
	config    ServiceManagerConfig

	// Service instances
	courseService      CourseService
	lessonService      LessonService
	quizService        QuizService
	enrollmentService  EnrollmentService
	promoService       PromoService
	paymentService     PaymentService
	certificateService CertificateService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		deps:      deps,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, deps Dependencies) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Course: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        5 * time.Minute,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},
		Lesson: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},
		Quiz: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Enrollment: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},
		Promo: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        2 * time.Minute,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Payment: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Certificate: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationBasic,
			AuditingEnabled: true,
		},

		DefaultTimeout:         30 * time.Second,
		InstructorRevenueShare: DefaultRevenueShare,
		RateLimitingRules:      make(map[string]RateLimit),
	}

	return NewServiceManager(db, repo, logger, validator, deps, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	if sm.config.Course.Enabled {
		sm.courseService = NewCourseService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Course service initialized")
	}

	if sm.config.Lesson.Enabled {
		sm.lessonService = NewLessonService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Lesson service initialized")
	}

	if sm.config.Quiz.Enabled {
		sm.quizService = NewQuizService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Quiz service initialized")
	}

	if sm.config.Enrollment.Enabled {
		sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.Publisher)
		sm.logger.Info("Enrollment service initialized")
	}

	if sm.config.Promo.Enabled {
		sm.promoService = NewPromoService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Promo service initialized")
	}

	if sm.config.Payment.Enabled {
		if sm.promoService == nil {
			return fmt.Errorf("payment service requires the promo service")
		}
		sm.paymentService = NewPaymentService(sm.repo, sm.db, sm.logger, sm.validator, sm.promoService, sm.deps.Publisher, sm.config.InstructorRevenueShare)
		sm.logger.Info("Payment service initialized")
	}

	if sm.config.Certificate.Enabled {
		if sm.deps.CertificateGenerator == nil {
			return fmt.Errorf("certificate service requires a generator")
		}
		sm.certificateService = NewCertificateService(sm.repo, sm.db, sm.logger, sm.deps.CertificateGenerator, sm.deps.Subscriber, sm.deps.Publisher)
		sm.logger.Info("Certificate service initialized")
	}

	return nil
}

// Service getters
func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Course.Enabled && sm.courseService != nil {
		return sm.courseService
	}

	panic("course service not enabled or not initialized")
}

func (sm *serviceManager) Lesson() LessonService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Lesson.Enabled && sm.lessonService != nil {
		return sm.lessonService
	}

	panic("lesson service not enabled or not initialized")
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Quiz.Enabled && sm.quizService != nil {
		return sm.quizService
	}

	panic("quiz service not enabled or not initialized")
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Enrollment.Enabled && sm.enrollmentService != nil {
		return sm.enrollmentService
	}

	panic("enrollment service not enabled or not initialized")
}

func (sm *serviceManager) Promo() PromoService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Promo.Enabled && sm.promoService != nil {
		return sm.promoService
	}

	panic("promo service not enabled or not initialized")
}

func (sm *serviceManager) Payment() PaymentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Payment.Enabled && sm.paymentService != nil {
		return sm.paymentService
	}

	panic("payment service not enabled or not initialized")
}

func (sm *serviceManager) Certificate() CertificateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Certificate.Enabled && sm.certificateService != nil {
		return sm.certificateService
	}

	panic("certificate service not enabled or not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if sm.deps.Subscriber != nil {
		if err := sm.deps.Subscriber.Close(); err != nil {
			sm.logger.Error("Failed to close event subscriber", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== UTILITY METHODS =====

// GetConfig returns the service manager configuration
func (sm *serviceManager) GetConfig() ServiceManagerConfig {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.config
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// IsShutdown returns whether the service manager has been shut down
func (sm *serviceManager) IsShutdown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.shutdown
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}

// ===== CONFIGURATION VALIDATION =====

// ValidateConfig validates the service manager configuration
func (config *ServiceManagerConfig) Validate() error {
	var errors []string

	if config.DefaultTimeout <= 0 {
		errors = append(errors, "default timeout must be positive")
	}

	if config.InstructorRevenueShare < 0 || config.InstructorRevenueShare > 1 {
		errors = append(errors, "instructor revenue share must be between 0 and 1")
	}

	for name, sc := range map[string]ServiceConfig{
		"course":      config.Course,
		"lesson":      config.Lesson,
		"quiz":        config.Quiz,
		"enrollment":  config.Enrollment,
		"promo":       config.Promo,
		"payment":     config.Payment,
		"certificate": config.Certificate,
	} {
		if err := sc.validate(name); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func (sc *ServiceConfig) validate(serviceName string) error {
	if sc.CacheTTL < 0 {
		return fmt.Errorf("%s: cache TTL cannot be negative", serviceName)
	}
	if sc.ValidationLevel < ValidationBasic || sc.ValidationLevel > ValidationFull {
		return fmt.Errorf("%s: invalid validation level", serviceName)
	}
	return nil
}

// ===== FACTORY FUNCTIONS =====

// CreateProductionServiceManager creates a service manager configured for production
func CreateProductionServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, deps Dependencies, revenueShare float64) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Course: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        5 * time.Minute,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Lesson: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Quiz: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false, // Attempt state is real-time
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Enrollment: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},
		Promo: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    true,
			CacheTTL:        2 * time.Minute,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Payment: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationFull,
			AuditingEnabled: true,
		},
		Certificate: ServiceConfig{
			Enabled:         true,
			CacheEnabled:    false,
			CacheTTL:        0,
			ValidationLevel: ValidationStrict,
			AuditingEnabled: true,
		},

		DefaultTimeout:         60 * time.Second,
		InstructorRevenueShare: revenueShare,
		RateLimitingRules: map[string]RateLimit{
			"checkout":    {RequestsPerMinute: 60, BurstSize: 10},
			"quiz_submit": {RequestsPerMinute: 100, BurstSize: 20},
			"enroll":      {RequestsPerMinute: 120, BurstSize: 30},
		},
	}

	return NewServiceManager(db, repo, logger, validator, deps, config)
}

// CreateDevelopmentServiceManager creates a service manager configured for development
func CreateDevelopmentServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, deps Dependencies) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: true,
		LogLevel:           slog.LevelDebug,

		Course:      ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Lesson:      ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Quiz:        ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Enrollment:  ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Promo:       ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Payment:     ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},
		Certificate: ServiceConfig{Enabled: true, ValidationLevel: ValidationBasic},

		DefaultTimeout:         10 * time.Second,
		InstructorRevenueShare: DefaultRevenueShare,
		RateLimitingRules:      make(map[string]RateLimit),
	}

	return NewServiceManager(db, repo, logger, validator, deps, config)
}
