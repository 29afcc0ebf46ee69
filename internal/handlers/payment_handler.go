package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
)

type PaymentHandler struct {
	BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    NewBaseHandler(logger),
		paymentService: paymentService,
	}
}

// Checkout purchases a course, optionally applying a promo code
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Checkout", "course_id", req.CourseID)

	result, err := h.paymentService.Checkout(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Donate records a voluntary contribution to a course
func (h *PaymentHandler) Donate(c *gin.Context) {
	var req services.DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	donation, err := h.paymentService.Donate(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, donation)
}

// RefundTransaction reverses a completed purchase (admin only)
func (h *PaymentHandler) RefundTransaction(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	transaction, err := h.paymentService.Refund(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetTransaction retrieves one transaction for its owner or an admin
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	transaction, err := h.paymentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetMyTransactions lists the caller's transactions
func (h *PaymentHandler) GetMyTransactions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	transactions, err := h.paymentService.ListMine(c.Request.Context(), userID, h.parseTransactionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// ListTransactions lists all transactions (admin only)
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	transactions, err := h.paymentService.List(c.Request.Context(), h.parseTransactionFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// GetMyEarnings returns the calling instructor's earnings report
func (h *PaymentHandler) GetMyEarnings(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	from, to, ok := h.parseDateRange(c)
	if !ok {
		return
	}

	report, err := h.paymentService.GetInstructorEarnings(c.Request.Context(), userID, from, to)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportMyEarnings streams the earnings report as an XLSX download
func (h *PaymentHandler) ExportMyEarnings(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	from, to, ok := h.parseDateRange(c)
	if !ok {
		return
	}

	data, err := h.paymentService.ExportInstructorEarnings(c.Request.Context(), userID, from, to)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("earnings-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *PaymentHandler) parseTransactionFilters(c *gin.Context) repositories.TransactionFilters {
	limit, offset := h.parsePagination(c)
	filters := repositories.TransactionFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if v := c.Query("status"); v != "" {
		status := models.TransactionStatus(v)
		filters.Status = &status
	}
	if v := c.Query("type"); v != "" {
		transactionType := models.TransactionType(v)
		filters.Type = &transactionType
	}
	return filters
}

// parseDateRange reads optional from/to query parameters in RFC 3339 date
// format. Writes the 400 response itself on malformed input.
func (h *PaymentHandler) parseDateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &from},
		{"to", &to},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "bad_request",
				Message: fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", p.name),
				Details: raw,
			})
			return nil, nil, false
		}
		*p.dst = &t
	}
	return from, to, true
}
