package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/payments"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

// DefaultRevenueShare is the instructor's cut of a sale when no share is
// configured.
const DefaultRevenueShare = 0.7

type paymentService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.BusinessValidator
	promoService PromoService
	publisher    events.Publisher
	revenueShare float64
}

func NewPaymentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator, promoService PromoService, publisher events.Publisher, revenueShare float64) PaymentService {
	if revenueShare <= 0 || revenueShare > 1 {
		revenueShare = DefaultRevenueShare
	}
	return &paymentService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		promoService: promoService,
		publisher:    publisher,
		revenueShare: revenueShare,
	}
}

// Checkout purchases a course for the caller. Promo redemption, the
// transaction row and the enrollment commit atomically; the promo usage
// increment rolls back with everything else on failure.
func (s *paymentService) Checkout(ctx context.Context, req *CheckoutRequest, userID string) (*CheckoutResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != authz.RoleStudent {
		return nil, NewPermissionError(userID, req.CourseID, "transaction", "checkout", "student role required")
	}

	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	switch {
	case !course.IsPublished || !course.IsApproved:
		return nil, ErrCourseNotLive
	case course.UserID == userID:
		return nil, ErrOwnCoursePurchase
	case course.Price <= 0:
		return nil, ErrCourseFree
	}

	purchased, err := s.repo.Transaction().HasPurchased(ctx, nil, userID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}
	if purchased {
		return nil, ErrAlreadyPurchased
	}

	var (
		transaction *models.Transaction
		promoCode   *models.PromoCode
		discount    float64
	)
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if req.PromoCode != nil && *req.PromoCode != "" {
			promoCode, discount, err = s.promoService.Redeem(ctx, txRepo, *req.PromoCode, course.Price)
			if err != nil {
				return err
			}
		}

		final := course.Price - discount
		if final < 0 {
			final = 0
		}

		purchase := models.TypePurchase
		transaction = &models.Transaction{
			UserID:           userID,
			Amount:           final,
			InstructorAmount: roundMoney(final * s.revenueShare),
			Status:           models.TransactionCompleted,
			CourseID:         &course.ID,
			Type:             &purchase,
			DiscountAmount:   discount,
		}
		if promoCode != nil {
			transaction.PromoCodeID = &promoCode.ID
		}

		if err := txRepo.Transaction().Create(ctx, nil, transaction); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		enrollment := &models.Enrollment{CourseID: course.ID, UserID: userID}
		if err := txRepo.Enrollment().Create(ctx, nil, enrollment); err != nil {
			if errors.Is(err, repositories.ErrDuplicateEnrollment) {
				return nil
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course purchased",
		"course_id", course.ID,
		"user_id", userID,
		"amount", transaction.Amount,
		"discount", discount)

	if promoCode != nil {
		s.announceRedemption(ctx, promoCode, transaction, discount)
	}

	return &CheckoutResponse{
		Transaction:    transaction,
		DiscountAmount: discount,
		FinalAmount:    transaction.Amount,
	}, nil
}

// Donate records a voluntary contribution to a course. Donations live in
// their own table; they never count as purchases and never unlock content.
func (s *paymentService) Donate(ctx context.Context, req *DonationRequest, userID string) (*models.Donation, error) {
	if errs := s.validator.ValidateDonation(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, NewPermissionError(userID, req.CourseID, "donation", "create", "authentication required")
	}

	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !course.IsPublished || !course.IsApproved {
		return nil, ErrCourseNotLive
	}

	donation := &models.Donation{
		CourseID: req.CourseID,
		DonorID:  userID,
		Amount:   req.Amount,
	}
	if req.Message != "" {
		donation.Message = &req.Message
	}

	if err := s.repo.Donation().Create(ctx, nil, donation); err != nil {
		return nil, fmt.Errorf("failed to record donation: %w", err)
	}

	s.logger.Info("Donation recorded", "course_id", req.CourseID, "donor_id", userID, "amount", req.Amount)
	return donation, nil
}

// Refund reverses a completed purchase. Only admins refund; the enrollment
// is kept so progress survives a repurchase.
func (s *paymentService) Refund(ctx context.Context, transactionID uint, userID string) (*models.Transaction, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != authz.RoleAdmin {
		return nil, NewPermissionError(userID, transactionID, "transaction", "refund", "admin role required")
	}

	transaction, err := s.repo.Transaction().GetByID(ctx, nil, transactionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if transaction.Status != models.TransactionCompleted || payments.TypeOf(transaction) != models.TypePurchase {
		return nil, ErrRefundNotPermitted
	}

	if err := s.repo.Transaction().UpdateStatus(ctx, nil, transactionID, models.TransactionRefunded); err != nil {
		return nil, fmt.Errorf("failed to refund transaction: %w", err)
	}
	transaction.Status = models.TransactionRefunded

	s.logger.Info("Transaction refunded", "transaction_id", transactionID, "admin_id", userID)
	return transaction, nil
}

// ===== QUERIES =====

func (s *paymentService) GetByID(ctx context.Context, id uint, userID string) (*TransactionResponse, error) {
	transaction, err := s.repo.Transaction().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if transaction.UserID != userID {
		actor, err := loadActor(ctx, s.repo, userID)
		if err != nil {
			return nil, err
		}
		if actor == nil || actor.Role != authz.RoleAdmin {
			return nil, NewPermissionError(userID, id, "transaction", "view", "not the transaction owner")
		}
	}

	return s.buildResponse(transaction), nil
}

func (s *paymentService) ListMine(ctx context.Context, userID string, filters repositories.TransactionFilters) (*TransactionListResponse, error) {
	transactions, total, err := s.repo.Transaction().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return s.buildListResponse(transactions, total, filters.Limit, filters.Offset), nil
}

func (s *paymentService) List(ctx context.Context, filters repositories.TransactionFilters, adminID string) (*TransactionListResponse, error) {
	actor, err := loadActor(ctx, s.repo, adminID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != authz.RoleAdmin {
		return nil, NewPermissionError(adminID, 0, "transaction", "list", "admin role required")
	}

	transactions, total, err := s.repo.Transaction().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return s.buildListResponse(transactions, total, filters.Limit, filters.Offset), nil
}

// ===== EARNINGS =====

func (s *paymentService) GetInstructorEarnings(ctx context.Context, instructorID string, from, to *time.Time) (*EarningsReport, error) {
	rows, err := s.repo.Transaction().GetInstructorEarnings(ctx, nil, instructorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute earnings: %w", err)
	}

	report := &EarningsReport{
		InstructorID: instructorID,
		From:         from,
		To:           to,
		Rows:         rows,
	}
	for _, row := range rows {
		report.TotalGross += row.GrossAmount
		report.TotalNet += row.InstructorAmount
	}
	return report, nil
}

// ExportInstructorEarnings renders the earnings report as an XLSX workbook.
func (s *paymentService) ExportInstructorEarnings(ctx context.Context, instructorID string, from, to *time.Time) ([]byte, error) {
	report, err := s.GetInstructorEarnings(ctx, instructorID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Earnings"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"Course ID", "Course", "Sales", "Gross", "Instructor Share"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	rowIdx := 2
	for _, row := range report.Rows {
		cell := fmt.Sprintf("A%d", rowIdx)
		values := []interface{}{row.CourseID, row.CourseTitle, row.Sales, row.GrossAmount, row.InstructorAmount}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write earnings row: %w", err)
		}
		rowIdx++
	}

	totals := []interface{}{"", "Total", "", report.TotalGross, report.TotalNet}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIdx), &totals); err != nil {
		return nil, fmt.Errorf("failed to write totals row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Earnings report exported", "instructor_id", instructorID, "rows", len(report.Rows))
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *paymentService) announceRedemption(ctx context.Context, promoCode *models.PromoCode, transaction *models.Transaction, discount float64) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(events.TypePromoRedeemed, events.PromoRedeemedPayload{
		PromoCodeID:    promoCode.ID,
		Code:           promoCode.Code,
		TransactionID:  transaction.ID,
		DiscountAmount: discount,
	})
	if err != nil {
		s.logger.Error("Failed to build redemption event", "promo_id", promoCode.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish redemption event", "promo_id", promoCode.ID, "error", err)
	}
}

func (s *paymentService) buildResponse(transaction *models.Transaction) *TransactionResponse {
	return &TransactionResponse{
		Transaction:   transaction,
		EffectiveType: payments.TypeOf(transaction),
	}
}

func (s *paymentService) buildListResponse(transactions []*models.Transaction, total int64, limit, offset int) *TransactionListResponse {
	items := make([]*TransactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		items = append(items, s.buildResponse(transaction))
	}

	page, size := pageFromOffset(limit, offset)
	return &TransactionListResponse{
		Transactions: items,
		Total:        total,
		Page:         page,
		Size:         size,
	}
}

// roundMoney rounds to two decimal places, ties away from zero.
func roundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
