package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact", 10.00, 10.00},
		{"round down", 10.114, 10.11},
		{"round up", 10.116, 10.12},
		{"half rounds up", 10.125, 10.13},
		{"revenue share", 99.99 * 0.7, 69.99},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundMoney(tt.in); got != tt.want {
				t.Errorf("roundMoney(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func paymentFixture(t *testing.T) (*stubRepository, *events.MockPublisher, PaymentService) {
	t.Helper()

	repo := newStubRepository()
	repo.users.byID["student-1"] = &models.User{ID: "student-1", Email: "s1@test.dev", Role: models.RoleStudent}
	repo.users.byID["teacher-1"] = &models.User{ID: "teacher-1", Email: "t1@test.dev", Role: models.RoleInstructor}
	repo.users.byID["admin-1"] = &models.User{ID: "admin-1", Email: "a1@test.dev", Role: models.RoleAdmin}
	repo.courses.byID[1] = &models.Course{
		ID:          1,
		UserID:      "teacher-1",
		Title:       "Go from Scratch",
		Price:       100,
		IsPublished: true,
		IsApproved:  true,
	}

	bv := validator.NewBusinessValidator()
	publisher := events.NewMockPublisher()
	promoSvc := NewPromoService(repo, nil, testLogger(), bv)
	svc := NewPaymentService(repo, nil, testLogger(), bv, promoSvc, publisher, 0.7)
	return repo, publisher, svc
}

func TestPaymentServiceCheckout(t *testing.T) {
	repo, publisher, svc := paymentFixture(t)

	resp, err := svc.Checkout(context.Background(), &CheckoutRequest{CourseID: 1}, "student-1")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if resp.Transaction.Amount != 100 {
		t.Errorf("transaction amount = %v, want 100", resp.Transaction.Amount)
	}
	if resp.Transaction.InstructorAmount != 70 {
		t.Errorf("instructor amount = %v, want 70", resp.Transaction.InstructorAmount)
	}
	if resp.Transaction.Status != models.TransactionCompleted {
		t.Errorf("transaction status = %v, want completed", resp.Transaction.Status)
	}
	if resp.DiscountAmount != 0 {
		t.Errorf("discount = %v, want 0", resp.DiscountAmount)
	}

	enrolled, _ := repo.enrollments.Exists(context.Background(), nil, 1, "student-1")
	if !enrolled {
		t.Error("checkout did not create an enrollment")
	}
	if got := publisher.Published(); len(got) != 0 {
		t.Errorf("published %d events without a promo code, want 0", len(got))
	}
}

func TestPaymentServiceCheckoutWithPromo(t *testing.T) {
	repo, publisher, svc := paymentFixture(t)
	repo.promos.byCode["WELCOME"] = &models.PromoCode{
		ID:            1,
		Code:          "WELCOME",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 25,
		IsActive:      true,
	}

	code := "WELCOME"
	resp, err := svc.Checkout(context.Background(), &CheckoutRequest{CourseID: 1, PromoCode: &code}, "student-1")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if resp.DiscountAmount != 25 {
		t.Errorf("discount = %v, want 25", resp.DiscountAmount)
	}
	if resp.FinalAmount != 75 {
		t.Errorf("final amount = %v, want 75", resp.FinalAmount)
	}
	if resp.Transaction.InstructorAmount != 52.5 {
		t.Errorf("instructor amount = %v, want 52.5", resp.Transaction.InstructorAmount)
	}
	if resp.Transaction.PromoCodeID == nil || *resp.Transaction.PromoCodeID != 1 {
		t.Error("transaction not linked to the promo code")
	}
	if repo.promos.byCode["WELCOME"].UsedCount != 1 {
		t.Errorf("promo used count = %d, want 1", repo.promos.byCode["WELCOME"].UsedCount)
	}

	published := publisher.Published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	event := published[0]
	if event.Type != events.TypePromoRedeemed {
		t.Errorf("event type = %q, want %q", event.Type, events.TypePromoRedeemed)
	}
	if event.Source != events.Source || event.Version != events.EnvelopeVersion {
		t.Errorf("event envelope source/version = %q/%q", event.Source, event.Version)
	}
	if event.ID == "" || event.Timestamp.IsZero() {
		t.Error("event envelope missing ID or timestamp")
	}
}

func TestPaymentServiceCheckoutDenials(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(repo *stubRepository)
		userID  string
		wantErr error
	}{
		{
			name:    "instructors cannot buy their own course",
			userID:  "teacher-1",
			wantErr: nil, // permission error, checked separately
		},
		{
			name: "free courses enroll directly",
			setup: func(repo *stubRepository) {
				repo.courses.byID[1].Price = 0
			},
			userID:  "student-1",
			wantErr: ErrCourseFree,
		},
		{
			name: "unpublished course",
			setup: func(repo *stubRepository) {
				repo.courses.byID[1].IsPublished = false
			},
			userID:  "student-1",
			wantErr: ErrCourseNotLive,
		},
		{
			name: "already purchased",
			setup: func(repo *stubRepository) {
				repo.transactions.purchased = map[string]bool{purchaseKey("student-1", 1): true}
			},
			userID:  "student-1",
			wantErr: ErrAlreadyPurchased,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, svc := paymentFixture(t)
			if tt.setup != nil {
				tt.setup(repo)
			}

			_, err := svc.Checkout(context.Background(), &CheckoutRequest{CourseID: 1}, tt.userID)
			if err == nil {
				t.Fatal("Checkout() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Checkout() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !IsPermissionError(err) {
				t.Errorf("Checkout() error = %v, want permission error", err)
			}
		})
	}
}

func TestPaymentServiceRefund(t *testing.T) {
	repo, _, svc := paymentFixture(t)

	if _, err := svc.Checkout(context.Background(), &CheckoutRequest{CourseID: 1}, "student-1"); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	transactionID := repo.transactions.created[0].ID

	if _, err := svc.Refund(context.Background(), transactionID, "student-1"); !IsPermissionError(err) {
		t.Errorf("Refund() by non-admin error = %v, want permission error", err)
	}

	refunded, err := svc.Refund(context.Background(), transactionID, "admin-1")
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if refunded.Status != models.TransactionRefunded {
		t.Errorf("refunded status = %v, want refunded", refunded.Status)
	}

	// Refunding twice is not permitted; the row is no longer completed.
	if _, err := svc.Refund(context.Background(), transactionID, "admin-1"); !errors.Is(err, ErrRefundNotPermitted) {
		t.Errorf("second Refund() error = %v, want ErrRefundNotPermitted", err)
	}
}

func TestExportInstructorEarnings(t *testing.T) {
	repo, _, svc := paymentFixture(t)
	repo.transactions.earnings = []*repositories.EarningsRow{
		{CourseID: 1, CourseTitle: "Go from Scratch", Sales: 3, GrossAmount: 300, InstructorAmount: 210},
		{CourseID: 2, CourseTitle: "Advanced Go", Sales: 1, GrossAmount: 150, InstructorAmount: 105},
	}

	data, err := svc.ExportInstructorEarnings(context.Background(), "teacher-1", nil, nil)
	if err != nil {
		t.Fatalf("ExportInstructorEarnings() error = %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a readable workbook: %v", err)
	}
	defer workbook.Close()

	header, err := workbook.GetCellValue("Earnings", "A1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if header != "Course ID" {
		t.Errorf("header cell = %q, want Course ID", header)
	}

	title, _ := workbook.GetCellValue("Earnings", "B3")
	if title != "Advanced Go" {
		t.Errorf("second row title = %q, want Advanced Go", title)
	}

	totalNet, _ := workbook.GetCellValue("Earnings", "E4")
	if totalNet != "315" {
		t.Errorf("total net cell = %q, want 315", totalNet)
	}
}
