package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

var promoCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,32}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidatePromoCreate validates promo code creation business rules
func (bv *BusinessValidator) ValidatePromoCreate(req *PromoCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePromoRules(req.DiscountType, req.DiscountValue, req.StartDate, req.EndDate)...)

	return errors
}

// ValidatePromoUpdate validates promo code update business rules against the
// existing row, since partial updates can leave fields untouched.
func (bv *BusinessValidator) ValidatePromoUpdate(req *PromoUpdateRequest, existing *models.PromoCode) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	discountType := existing.DiscountType
	if req.DiscountType != nil {
		discountType = *req.DiscountType
	}
	discountValue := existing.DiscountValue
	if req.DiscountValue != nil {
		discountValue = *req.DiscountValue
	}
	startDate := existing.StartDate
	if req.StartDate != nil {
		startDate = req.StartDate
	}
	endDate := existing.EndDate
	if req.EndDate != nil {
		endDate = req.EndDate
	}

	errors = append(errors, bv.validatePromoRules(discountType, discountValue, startDate, endDate)...)

	if req.MaxUses != nil && *req.MaxUses < existing.UsedCount {
		errors = append(errors, ValidationError{
			Field:   "max_uses",
			Message: "cannot be lower than the current usage count",
			Value:   *req.MaxUses,
			Rule:    "business_logic",
		})
	}

	return errors
}

func (bv *BusinessValidator) validatePromoRules(discountType models.DiscountType, discountValue float64, startDate, endDate *time.Time) ValidationErrors {
	var errors ValidationErrors

	if discountType == models.DiscountPercentage && discountValue > 100 {
		errors = append(errors, ValidationError{
			Field:   "discount_value",
			Message: "percentage discount cannot exceed 100",
			Value:   discountValue,
			Rule:    "business_logic",
		})
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "cannot be before start date",
			Value:   endDate,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuizCreate validates quiz creation business rules
func (bv *BusinessValidator) ValidateQuizCreate(req *QuizCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateDonation validates a donation request
func (bv *BusinessValidator) ValidateDonation(req *DonationRequest) ValidationErrors {
	return bv.Validate(req)
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Course title validation (1-200 characters)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Course price validation (free or positive, capped to keep typos out)
	bv.validate.RegisterValidation("course_price", func(fl validator.FieldLevel) bool {
		price := fl.Field().Float()
		return price >= 0 && price <= 100000
	})

	// Passing score validation (0-100)
	bv.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// Promo code format validation
	bv.validate.RegisterValidation("promo_code", func(fl validator.FieldLevel) bool {
		return promoCodePattern.MatchString(fl.Field().String())
	})

	// Discount type validation
	bv.validate.RegisterValidation("discount_type", func(fl validator.FieldLevel) bool {
		dt := models.DiscountType(fl.Field().String())
		return dt == models.DiscountPercentage || dt == models.DiscountFixed
	})

	// Due date validation (must be in future)
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true // Optional field
		}

		var dueDate time.Time
		if field.Kind() == reflect.Ptr {
			dueDate = field.Elem().Interface().(time.Time)
		} else {
			dueDate = field.Interface().(time.Time)
		}

		return dueDate.After(time.Now())
	})
}

// ValidateQuizAnswers checks that every submitted answer references a question
// that exists in the quiz.
func (bv *BusinessValidator) ValidateQuizAnswers(answers map[string]interface{}, questionIDs map[string]struct{}) ValidationErrors {
	var errors ValidationErrors

	for questionID := range answers {
		if _, ok := questionIDs[questionID]; !ok {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%s]", questionID),
				Message: "refers to a question not in this quiz",
				Value:   questionID,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}
