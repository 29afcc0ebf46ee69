// Package events carries the service's domain events. Producers publish an
// Event envelope; the transport (Kafka in production, an in-process channel
// in development and tests) is hidden behind the Publisher and Subscriber
// interfaces.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// Source identifies this service in event envelopes.
	Source = "lms-service"

	// EnvelopeVersion is bumped when the envelope layout changes.
	EnvelopeVersion = "1.0"
)

// Event types.
const (
	TypeEnrollmentCompleted  = "enrollment.completed"
	TypeCertificateGenerated = "certificate.generated"
	TypePromoRedeemed        = "promo.redeemed"
)

// Topic is the single stream all LMS domain events are published on.
const Topic = "lms.events"

// Event is the envelope every domain event travels in.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps a payload in a fresh envelope.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    Source,
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// EnrollmentCompletedPayload announces that a student finished a course;
// the certificate worker listens for it.
type EnrollmentCompletedPayload struct {
	EnrollmentID uint   `json:"enrollment_id"`
	CourseID     uint   `json:"course_id"`
	UserID       string `json:"user_id"`
}

// CertificateGeneratedPayload is emitted after a certificate artifact is
// stored.
type CertificateGeneratedPayload struct {
	CertificateID     uint   `json:"certificate_id"`
	CertificateNumber string `json:"certificate_number"`
	FilePath          string `json:"file_path"`
}

// PromoRedeemedPayload is emitted on every successful promo redemption.
type PromoRedeemedPayload struct {
	PromoCodeID    uint    `json:"promo_code_id"`
	Code           string  `json:"code"`
	TransactionID  uint    `json:"transaction_id"`
	DiscountAmount float64 `json:"discount_amount"`
}

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Subscriber delivers domain events to a handler until the context is
// cancelled. Delivery is at-least-once; handlers must tolerate replays.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, event *Event) error) error
	Close() error
}
