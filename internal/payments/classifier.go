// Package payments derives transaction semantics from stored fields.
package payments

import (
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// TypeOf classifies a transaction. An explicitly persisted type always wins;
// otherwise the type is derived on read: a refunded status means refund, a
// positive instructor share with no course attached means payout, and
// everything else is a purchase. The snapshot is never mutated — older rows
// written without a type keep deriving theirs on every read.
func TypeOf(tx *models.Transaction) models.TransactionType {
	if tx.Type != nil && *tx.Type != "" {
		return *tx.Type
	}
	if tx.Status == models.TransactionRefunded {
		return models.TypeRefund
	}
	if tx.InstructorAmount > 0 && tx.CourseID == nil {
		return models.TypePayout
	}
	return models.TypePurchase
}
