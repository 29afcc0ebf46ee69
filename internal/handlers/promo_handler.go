package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
)

type PromoHandler struct {
	BaseHandler
	promoService services.PromoService
}

func NewPromoHandler(promoService services.PromoService, logger utils.Logger) *PromoHandler {
	return &PromoHandler{
		BaseHandler:  NewBaseHandler(logger),
		promoService: promoService,
	}
}

// CreatePromo creates a promo code (admin only)
func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var req services.CreatePromoRequest
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

	promo, err := h.promoService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, promo)
}

// GetPromo retrieves a promo code (admin only)
func (h *PromoHandler) GetPromo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	promo, err := h.promoService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, promo)
}

// UpdatePromo updates a promo code (admin only)
func (h *PromoHandler) UpdatePromo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdatePromoRequest
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

	promo, err := h.promoService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, promo)
}

// DeletePromo removes a promo code (admin only)
func (h *PromoHandler) DeletePromo(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.promoService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "promo code deleted"})
}

// ListPromos lists promo codes (admin only)
func (h *PromoHandler) ListPromos(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.PromoCodeFilters{Limit: limit, Offset: offset}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}
	if v := c.Query("search"); v != "" {
		filters.Search = &v
	}

	promos, total, err := h.promoService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"promo_codes": promos,
		"total":       total,
	})
}

// GetPromoStats returns usage statistics for one promo code (admin only)
func (h *PromoHandler) GetPromoStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.promoService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ValidatePromo previews a code against a cart value without consuming a use
func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "query parameter code is required",
		})
		return
	}

	cartValue, err := strconv.ParseFloat(c.DefaultQuery("cart_value", "0"), 64)
	if err != nil || cartValue < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid cart_value parameter",
		})
		return
	}

	preview, err := h.promoService.Validate(c.Request.Context(), code, cartValue)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}
