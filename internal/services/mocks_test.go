package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
)

// In-memory repository stubs for service tests. Only the methods the tests
// exercise carry behavior; everything else returns zero values.

type stubRepository struct {
	users        *stubUsers
	courses      *stubCourses
	lessons      *stubLessons
	enrollments  *stubEnrollments
	reviews      *stubReviews
	promos       *stubPromos
	transactions *stubTransactions
	certificates *stubCertificates
}

func newStubRepository() *stubRepository {
	repo := &stubRepository{
		users:        &stubUsers{byID: map[string]*models.User{}},
		courses:      &stubCourses{byID: map[uint]*models.Course{}},
		lessons:      &stubLessons{byID: map[uint]*models.Lesson{}},
		enrollments:  &stubEnrollments{byID: map[uint]*models.Enrollment{}},
		reviews:      &stubReviews{byID: map[uint]*models.Review{}},
		promos:       &stubPromos{byCode: map[string]*models.PromoCode{}},
		transactions: &stubTransactions{},
		certificates: &stubCertificates{byEnrollment: map[uint]*models.Certificate{}},
	}
	repo.certificates.repo = repo
	return repo
}

func (r *stubRepository) Course() repositories.CourseRepository           { return r.courses }
func (r *stubRepository) Lesson() repositories.LessonRepository           { return r.lessons }
func (r *stubRepository) Enrollment() repositories.EnrollmentRepository   { return r.enrollments }
func (r *stubRepository) Review() repositories.ReviewRepository           { return r.reviews }
func (r *stubRepository) Quiz() repositories.QuizRepository               { return nil }
func (r *stubRepository) QuizAttempt() repositories.QuizAttemptRepository { return nil }
func (r *stubRepository) PromoCode() repositories.PromoCodeRepository     { return r.promos }
func (r *stubRepository) Transaction() repositories.TransactionRepository { return r.transactions }
func (r *stubRepository) Donation() repositories.DonationRepository       { return nil }
func (r *stubRepository) Certificate() repositories.CertificateRepository { return r.certificates }
func (r *stubRepository) User() repositories.UserRepository               { return r.users }
func (r *stubRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *stubRepository) Ping(ctx context.Context) error { return nil }
func (r *stubRepository) Close() error                   { return nil }

// ===== Users =====

type stubUsers struct {
	byID map[string]*models.User
}

func (s *stubUsers) Upsert(ctx context.Context, user *models.User) error {
	s.byID[user.ID] = user
	return nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var users []*models.User
	for _, id := range ids {
		if user, ok := s.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *stubUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := s.byID[id]
	return ok, nil
}

func (s *stubUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := s.byID[id]
	return ok && user.Role == role, nil
}

// ===== Courses =====

type stubCourses struct {
	byID map[uint]*models.Course
}

func (s *stubCourses) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	course.ID = uint(len(s.byID) + 1)
	s.byID[course.ID] = course
	return nil
}

func (s *stubCourses) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	course, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return course, nil
}

func (s *stubCourses) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	return s.GetByID(ctx, tx, id)
}

func (s *stubCourses) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	s.byID[course.ID] = course
	return nil
}

func (s *stubCourses) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(s.byID, id)
	return nil
}

func (s *stubCourses) Restore(ctx context.Context, tx *gorm.DB, id uint) error     { return nil }
func (s *stubCourses) ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error { return nil }

func (s *stubCourses) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (s *stubCourses) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (s *stubCourses) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (s *stubCourses) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	course, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	course.IsPublished = published
	return nil
}

func (s *stubCourses) SetApproved(ctx context.Context, tx *gorm.DB, id uint, approved bool) error {
	course, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	course.IsApproved = approved
	return nil
}

func (s *stubCourses) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.CourseStats, error) {
	return &repositories.CourseStats{}, nil
}

func (s *stubCourses) GetInstructorStats(ctx context.Context, tx *gorm.DB, instructorID string) (*repositories.InstructorStats, error) {
	return &repositories.InstructorStats{}, nil
}

func (s *stubCourses) HasEnrollments(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	return false, nil
}

func (s *stubCourses) IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, userID string) (bool, error) {
	course, ok := s.byID[id]
	return ok && course.UserID == userID, nil
}

// ===== Lessons =====

type stubLessons struct {
	byID   map[uint]*models.Lesson
	nextID uint
}

func (s *stubLessons) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	s.nextID++
	lesson.ID = s.nextID
	s.byID[lesson.ID] = lesson
	return nil
}

func (s *stubLessons) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	lesson, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return lesson, nil
}

func (s *stubLessons) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	s.byID[lesson.ID] = lesson
	return nil
}

func (s *stubLessons) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(s.byID, id)
	return nil
}

func (s *stubLessons) Restore(ctx context.Context, tx *gorm.DB, id uint) error     { return nil }
func (s *stubLessons) ForceDelete(ctx context.Context, tx *gorm.DB, id uint) error { return nil }

func (s *stubLessons) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	for _, lesson := range s.byID {
		if lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	return lessons, nil
}

func (s *stubLessons) Reorder(ctx context.Context, tx *gorm.DB, courseID uint, lessonIDs []uint) error {
	for position, id := range lessonIDs {
		if lesson, ok := s.byID[id]; ok && lesson.CourseID == courseID {
			lesson.Order = position + 1
		}
	}
	return nil
}

func (s *stubLessons) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	for _, lesson := range s.byID {
		if lesson.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

// ===== Reviews =====

type stubReviews struct {
	byID   map[uint]*models.Review
	nextID uint
}

func (s *stubReviews) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	s.nextID++
	review.ID = s.nextID
	s.byID[review.ID] = review
	return nil
}

func (s *stubReviews) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Review, error) {
	review, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return review, nil
}

func (s *stubReviews) GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (*models.Review, error) {
	for _, review := range s.byID {
		if review.CourseID == courseID && review.UserID == userID {
			return review, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubReviews) Update(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	s.byID[review.ID] = review
	return nil
}

func (s *stubReviews) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(s.byID, id)
	return nil
}

func (s *stubReviews) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, limit, offset int) ([]*models.Review, int64, error) {
	var reviews []*models.Review
	for _, review := range s.byID {
		if review.CourseID == courseID {
			reviews = append(reviews, review)
		}
	}
	return reviews, int64(len(reviews)), nil
}

func (s *stubReviews) AverageRating(ctx context.Context, tx *gorm.DB, courseID uint) (float64, error) {
	var sum, count float64
	for _, review := range s.byID {
		if review.CourseID == courseID {
			sum += float64(review.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / count, nil
}

// ===== Enrollments =====

type stubEnrollments struct {
	byID   map[uint]*models.Enrollment
	nextID uint
}

func (s *stubEnrollments) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	for _, existing := range s.byID {
		if existing.CourseID == enrollment.CourseID && existing.UserID == enrollment.UserID {
			return repositories.ErrDuplicateEnrollment
		}
	}
	s.nextID++
	enrollment.ID = s.nextID
	s.byID[enrollment.ID] = enrollment
	return nil
}

func (s *stubEnrollments) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	enrollment, ok := s.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return enrollment, nil
}

func (s *stubEnrollments) GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (*models.Enrollment, error) {
	for _, enrollment := range s.byID {
		if enrollment.CourseID == courseID && enrollment.UserID == userID {
			return enrollment, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubEnrollments) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	s.byID[enrollment.ID] = enrollment
	return nil
}

func (s *stubEnrollments) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	return nil, 0, nil
}

func (s *stubEnrollments) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, enrollment := range s.byID {
		if enrollment.UserID == userID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *stubEnrollments) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, enrollment := range s.byID {
		if enrollment.CourseID == courseID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *stubEnrollments) Exists(ctx context.Context, tx *gorm.DB, courseID uint, userID string) (bool, error) {
	_, err := s.GetByCourseAndUser(ctx, tx, courseID, userID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *stubEnrollments) UpdateProgress(ctx context.Context, tx *gorm.DB, id uint, progress float64) error {
	enrollment, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	enrollment.Progress = progress
	return nil
}

func (s *stubEnrollments) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint) error {
	enrollment, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
		enrollment.Progress = 100
	}
	return nil
}

func (s *stubEnrollments) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	enrollments, _ := s.GetByCourse(ctx, tx, courseID)
	return int64(len(enrollments)), nil
}

// ===== Promo codes =====

type stubPromos struct {
	byCode       map[string]*models.PromoCode
	incrementErr error
}

func (s *stubPromos) Create(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error {
	code.ID = uint(len(s.byCode) + 1)
	s.byCode[code.Code] = code
	return nil
}

func (s *stubPromos) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.PromoCode, error) {
	for _, code := range s.byCode {
		if code.ID == id {
			return code, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubPromos) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error) {
	promo, ok := s.byCode[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return promo, nil
}

func (s *stubPromos) GetByCodeLocked(ctx context.Context, tx *gorm.DB, code string) (*models.PromoCode, error) {
	return s.GetByCode(ctx, tx, code)
}

func (s *stubPromos) Update(ctx context.Context, tx *gorm.DB, code *models.PromoCode) error {
	s.byCode[code.Code] = code
	return nil
}

func (s *stubPromos) Delete(ctx context.Context, tx *gorm.DB, id uint) error { return nil }

func (s *stubPromos) List(ctx context.Context, tx *gorm.DB, filters repositories.PromoCodeFilters) ([]*models.PromoCode, int64, error) {
	return nil, 0, nil
}

func (s *stubPromos) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	return nil
}

func (s *stubPromos) IncrementUsage(ctx context.Context, tx *gorm.DB, id uint) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	for _, code := range s.byCode {
		if code.ID == id {
			if code.MaxUses != nil && code.UsedCount >= *code.MaxUses {
				return repositories.ErrPromoExhausted
			}
			code.UsedCount++
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *stubPromos) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.PromoCodeStats, error) {
	return &repositories.PromoCodeStats{}, nil
}

func (s *stubPromos) ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error) {
	_, ok := s.byCode[code]
	return ok, nil
}

// ===== Transactions =====

type stubTransactions struct {
	created   []*models.Transaction
	purchased map[string]bool // "userID:courseID"
	earnings  []*repositories.EarningsRow
}

func (s *stubTransactions) Create(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error {
	transaction.ID = uint(len(s.created) + 1)
	s.created = append(s.created, transaction)
	return nil
}

func (s *stubTransactions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Transaction, error) {
	for _, transaction := range s.created {
		if transaction.ID == id {
			return transaction, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubTransactions) Update(ctx context.Context, tx *gorm.DB, transaction *models.Transaction) error {
	return nil
}

func (s *stubTransactions) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.TransactionStatus) error {
	transaction, err := s.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	transaction.Status = status
	return nil
}

func (s *stubTransactions) List(ctx context.Context, tx *gorm.DB, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	return s.created, int64(len(s.created)), nil
}

func (s *stubTransactions) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.TransactionFilters) ([]*models.Transaction, int64, error) {
	var out []*models.Transaction
	for _, transaction := range s.created {
		if transaction.UserID == userID {
			out = append(out, transaction)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubTransactions) HasPurchased(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (bool, error) {
	if s.purchased == nil {
		return false, nil
	}
	return s.purchased[purchaseKey(userID, courseID)], nil
}

func (s *stubTransactions) GetInstructorEarnings(ctx context.Context, tx *gorm.DB, instructorID string, from, to *time.Time) ([]*repositories.EarningsRow, error) {
	return s.earnings, nil
}

func (s *stubTransactions) SumDiscountByPromo(ctx context.Context, tx *gorm.DB, promoCodeID uint) (float64, int, error) {
	return 0, 0, nil
}

func purchaseKey(userID string, courseID uint) string {
	return fmt.Sprintf("%s:%d", userID, courseID)
}

// ===== Certificates =====

type stubCertificates struct {
	byEnrollment map[uint]*models.Certificate
	repo         *stubRepository
}

// hydrate fills the enrollment chain the way the real repository's preloads
// do, so artifact rendering has names and titles to draw.
func (s *stubCertificates) hydrate(cert *models.Certificate) *models.Certificate {
	out := *cert
	enrollment, ok := s.repo.enrollments.byID[cert.EnrollmentID]
	if !ok {
		return &out
	}
	out.Enrollment = *enrollment
	if student, ok := s.repo.users.byID[enrollment.UserID]; ok {
		out.Enrollment.Student = *student
	}
	if course, ok := s.repo.courses.byID[enrollment.CourseID]; ok {
		out.Enrollment.Course = *course
		if instructor, ok := s.repo.users.byID[course.UserID]; ok {
			out.Enrollment.Course.Instructor = *instructor
		}
	}
	return &out
}

func (s *stubCertificates) Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	certificate.ID = uint(len(s.byEnrollment) + 1)
	s.byEnrollment[certificate.EnrollmentID] = certificate
	return nil
}

func (s *stubCertificates) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) {
	for _, cert := range s.byEnrollment {
		if cert.ID == id {
			return cert, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubCertificates) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*models.Certificate, error) {
	for _, cert := range s.byEnrollment {
		if cert.CertificateNumber == number {
			return cert, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubCertificates) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*models.Certificate, error) {
	cert, ok := s.byEnrollment[enrollmentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cert, nil
}

func (s *stubCertificates) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) {
	cert, err := s.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(cert), nil
}

func (s *stubCertificates) Update(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	s.byEnrollment[certificate.EnrollmentID] = certificate
	return nil
}

func (s *stubCertificates) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Certificate, error) {
	return nil, nil
}

func (s *stubCertificates) ListPendingArtifacts(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Certificate, error) {
	var out []*models.Certificate
	for _, cert := range s.byEnrollment {
		if cert.FilePath == nil {
			out = append(out, s.hydrate(cert))
		}
	}
	return out, nil
}
