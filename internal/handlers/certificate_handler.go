package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
)

type CertificateHandler struct {
	BaseHandler
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler:        NewBaseHandler(logger),
		certificateService: certificateService,
	}
}

// GetMyCertificates lists the caller's certificates
func (h *CertificateHandler) GetMyCertificates(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	certificates, err := h.certificateService.GetMyCertificates(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

// GetCertificate retrieves one certificate for its holder or an admin
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	certificate, err := h.certificateService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

// VerifyCertificate is the public verification endpoint: anyone holding a
// certificate number can confirm it is genuine, no authentication needed.
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "certificate number is required",
		})
		return
	}

	certificate, err := h.certificateService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

// DownloadCertificate streams the rendered PNG artifact
func (h *CertificateHandler) DownloadCertificate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	certificate, err := h.certificateService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if certificate.FilePath == nil {
		h.handleServiceError(c, services.ErrCertificatePending)
		return
	}

	c.FileAttachment(*certificate.FilePath, certificate.CertificateNumber+".png")
}

// RegenerateCertificate re-renders the certificate artifact
func (h *CertificateHandler) RegenerateCertificate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Certificate regeneration", "certificate_id", id)

	certificate, err := h.certificateService.Regenerate(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}
