package validator

import (
	"testing"
	"time"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func TestValidateCourseCreate(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		req     CourseCreateRequest
		wantErr bool
	}{
		{
			name: "valid paid course",
			req:  CourseCreateRequest{Title: "Intro to Go", Description: "Basics", Price: 49.99},
		},
		{
			name: "valid free course",
			req:  CourseCreateRequest{Title: "Free Course", Price: 0},
		},
		{
			name:    "empty title",
			req:     CourseCreateRequest{Title: "   ", Price: 10},
			wantErr: true,
		},
		{
			name:    "negative price",
			req:     CourseCreateRequest{Title: "Cheap", Price: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateCourseCreate(&tt.req)
			if errs.HasErrors() != tt.wantErr {
				t.Errorf("ValidateCourseCreate() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidatePromoCreate(t *testing.T) {
	bv := NewBusinessValidator()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(-time.Hour)

	tests := []struct {
		name    string
		req     PromoCreateRequest
		wantErr bool
	}{
		{
			name: "valid percentage code",
			req: PromoCreateRequest{
				Code:          "WELCOME10",
				DiscountType:  models.DiscountPercentage,
				DiscountValue: 10,
			},
		},
		{
			name: "percentage over 100",
			req: PromoCreateRequest{
				Code:          "TOOBIG",
				DiscountType:  models.DiscountPercentage,
				DiscountValue: 150,
			},
			wantErr: true,
		},
		{
			name: "lowercase code rejected",
			req: PromoCreateRequest{
				Code:          "welcome10",
				DiscountType:  models.DiscountFixed,
				DiscountValue: 5,
			},
			wantErr: true,
		},
		{
			name: "end date before start date",
			req: PromoCreateRequest{
				Code:          "BACKWARDS",
				DiscountType:  models.DiscountFixed,
				DiscountValue: 5,
				StartDate:     &start,
				EndDate:       &end,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidatePromoCreate(&tt.req)
			if errs.HasErrors() != tt.wantErr {
				t.Errorf("ValidatePromoCreate() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidatePromoUpdateUsageFloor(t *testing.T) {
	bv := NewBusinessValidator()
	existing := &models.PromoCode{
		Code:          "WELCOME10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		UsedCount:     7,
	}

	lower := 5
	errs := bv.ValidatePromoUpdate(&PromoUpdateRequest{MaxUses: &lower}, existing)
	if !errs.HasErrors() {
		t.Error("ValidatePromoUpdate() allowed max_uses below used_count")
	}

	higher := 10
	errs = bv.ValidatePromoUpdate(&PromoUpdateRequest{MaxUses: &higher}, existing)
	if errs.HasErrors() {
		t.Errorf("ValidatePromoUpdate() errors = %v, want none", errs)
	}
}

func TestValidateQuizAnswers(t *testing.T) {
	bv := NewBusinessValidator()
	questionIDs := map[string]struct{}{"q1": {}, "q2": {}}

	errs := bv.ValidateQuizAnswers(map[string]interface{}{"q1": "a", "q2": "b"}, questionIDs)
	if errs.HasErrors() {
		t.Errorf("ValidateQuizAnswers() errors = %v, want none", errs)
	}

	errs = bv.ValidateQuizAnswers(map[string]interface{}{"q9": "a"}, questionIDs)
	if !errs.HasErrors() {
		t.Error("ValidateQuizAnswers() accepted an unknown question id")
	}
}
