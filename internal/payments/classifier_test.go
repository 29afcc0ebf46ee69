package payments

import (
	"testing"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

func uintPtr(n uint) *uint { return &n }

func typePtr(t models.TransactionType) *models.TransactionType { return &t }

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		tx   models.Transaction
		want models.TransactionType
	}{
		{
			name: "explicit type wins over derivation",
			tx: models.Transaction{
				Type:             typePtr(models.TypePurchase),
				Status:           models.TransactionRefunded,
				InstructorAmount: 50,
			},
			want: models.TypePurchase,
		},
		{
			name: "refunded status derives refund",
			tx:   models.Transaction{Status: models.TransactionRefunded},
			want: models.TypeRefund,
		},
		{
			name: "instructor share without course derives payout",
			tx: models.Transaction{
				Status:           models.TransactionCompleted,
				InstructorAmount: 50,
			},
			want: models.TypePayout,
		},
		{
			name: "course purchase with no instructor share",
			tx: models.Transaction{
				Status:   models.TransactionCompleted,
				CourseID: uintPtr(5),
			},
			want: models.TypePurchase,
		},
		{
			name: "instructor share with a course is still a purchase",
			tx: models.Transaction{
				Status:           models.TransactionCompleted,
				CourseID:         uintPtr(5),
				InstructorAmount: 35,
			},
			want: models.TypePurchase,
		},
		{
			name: "pending with nothing set defaults to purchase",
			tx:   models.Transaction{Status: models.TransactionPending},
			want: models.TypePurchase,
		},
		{
			name: "empty explicit type falls through to derivation",
			tx: models.Transaction{
				Type:   typePtr(models.TransactionType("")),
				Status: models.TransactionRefunded,
			},
			want: models.TypeRefund,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(&tt.tx); got != tt.want {
				t.Errorf("TypeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeOf_Idempotent(t *testing.T) {
	tx := models.Transaction{Status: models.TransactionRefunded}
	before := tx

	first := TypeOf(&tx)
	second := TypeOf(&tx)

	if first != second {
		t.Errorf("TypeOf not stable: %v then %v", first, second)
	}
	if tx != before {
		t.Error("TypeOf mutated the snapshot")
	}
}
