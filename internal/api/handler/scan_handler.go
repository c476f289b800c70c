package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"scanlink/backend/config"
	"scanlink/backend/internal/api/middleware"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/service"
	apperrors "scanlink/backend/pkg/errors"
	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/response"
)

// ScanHandler serves the scan lifecycle routes.
//
// The /demo/create, /ps, /r and /multiuse/results responses keep their
// historical wire shapes (deployed QR posters and kiosk clients parse
// them); everything else uses the standard envelope.
type ScanHandler struct {
	cfg     *config.Config
	scanSvc service.ScanService
}

// NewScanHandler creates the ScanHandler.
func NewScanHandler(cfg *config.Config, scanSvc service.ScanService) *ScanHandler {
	return &ScanHandler{cfg: cfg, scanSvc: scanSvc}
}

// CreateDemo starts a demo scan.
// POST /demo/create
func (h *ScanHandler) CreateDemo(c *gin.Context) {
	var req dto.CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "name and phone are required")
		return
	}

	result, err := h.scanSvc.CreateForSubject(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			response.BadRequest(c, 10001, "phone number is invalid")
			return
		}
		response.InternalError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"scanId":  result.ScanID,
		"scanUrl": result.ScanURL,
	})
}

// RegisterIntake starts a pending self-registration scan.
// POST /multiuse/register
func (h *ScanHandler) RegisterIntake(c *gin.Context) {
	var req dto.RegisterIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "name and phone are required")
		return
	}

	result, err := h.scanSvc.RegisterIntake(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			response.BadRequest(c, 10001, "phone number is invalid")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// PatientLink redirects a /ps short code to the tokened patient-scan page.
// GET /ps/:code
func (h *ScanHandler) PatientLink(c *gin.Context) {
	target, err := h.scanSvc.ResolvePatientLink(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Redirect(http.StatusFound, h.cfg.Server.BaseURL+"/invalid-link")
		return
	}
	c.Redirect(http.StatusFound, target.URL)
}

// ShortCodeRedirect redirects a /r short code to the flow's result page.
// GET /r/:code
func (h *ScanHandler) ShortCodeRedirect(c *gin.Context) {
	target, err := h.scanSvc.ResolveByShortCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.String(http.StatusNotFound, "not found")
			return
		}
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Redirect(http.StatusFound, target.URL)
}

// ResolveToken returns the subject's own view of a scan.
// GET /patient-scan/resolve?token=...
func (h *ScanHandler) ResolveToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, 10001, "token is required")
		return
	}

	view, err := h.scanSvc.ResolveByToken(c.Request.Context(), token)
	if err != nil {
		h.mapResolveError(c, err)
		return
	}

	response.OK(c, view)
}

// StudentScan returns the student's own view via the studentToken cookie.
// GET /student/scan
func (h *ScanHandler) StudentScan(c *gin.Context) {
	token, err := c.Cookie(middleware.StudentCookieName)
	if err != nil || token == "" {
		response.Unauthorized(c, 10002, "missing student session")
		return
	}

	view, err := h.scanSvc.ResolveByToken(c.Request.Context(), token)
	if err != nil {
		h.mapResolveError(c, err)
		return
	}

	response.OK(c, view)
}

// Submit accepts the scan images as a multipart upload and advances the
// scan to submitted.
// POST /multiuse/scans/:id/images
func (h *ScanHandler) Submit(c *gin.Context) {
	scanID := c.Param("id")
	if claimScan := c.GetString(middleware.ContextScanID); claimScan != "" && claimScan != scanID {
		response.Forbidden(c, 10003, "token is bound to a different scan")
		return
	}

	version, err := versionField(c)
	if err != nil {
		response.BadRequest(c, 10001, "version is required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, 10001, "multipart form is required")
		return
	}

	var images []dto.SubmissionImage
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, 10001, "unreadable image upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.BadRequest(c, 10001, "unreadable image upload")
			return
		}
		images = append(images, dto.SubmissionImage{Name: fh.Filename, Data: data})
	}

	if err := h.scanSvc.RecordSubmission(c.Request.Context(), scanID, version, images); err != nil {
		switch {
		case errors.Is(err, service.ErrNoImages):
			response.BadRequest(c, 10001, "at least one image is required")
		case errors.Is(err, service.ErrScanNotFound):
			response.NotFound(c, 20001, "scan not found")
		case errors.Is(err, apperrors.ErrConflict):
			response.Conflict(c, 20003, "scan was updated by another request, refresh and retry")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// DeliverResult stores a computed result, completes the scan and
// notifies the subject.
// POST /multiuse/scans/:id/result
func (h *ScanHandler) DeliverResult(c *gin.Context) {
	var req dto.DeliverResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "result payload is required")
		return
	}

	role := c.GetString(middleware.ContextRole)
	view, err := h.scanSvc.DeliverResult(c.Request.Context(), c.Param("id"), role, c.Query("flow"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScanNotFound):
			response.NotFound(c, 20001, "scan not found")
		case errors.Is(err, apperrors.ErrConflict):
			response.Conflict(c, 20003, "scan was updated by another request, refresh and retry")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, view)
}

// Results serves the filtered result view.
// GET /multiuse/results?scanId=&flow=&role=
func (h *ScanHandler) Results(c *gin.Context) {
	scanID := c.Query("scanId")
	if scanID == "" {
		response.BadRequest(c, 10001, "scanId is required")
		return
	}

	view, flow, hasFullAccess, err := h.scanSvc.GetResult(c.Request.Context(), scanID, c.Query("role"), c.Query("flow"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScanNotFound):
			response.NotFound(c, 20001, "scan not found")
		case errors.Is(err, service.ErrResultNotReady):
			response.NotFound(c, 20004, "result is not ready")
		default:
			response.InternalError(c)
		}
		return
	}

	// Historical wire shape.
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"flow":          flow,
		"hasFullAccess": hasFullAccess,
		"result":        view,
	})
}

// RevokeConsent runs the irreversible consent-revocation cascade.
// DELETE /subjects/:id/consent
func (h *ScanHandler) RevokeConsent(c *gin.Context) {
	actor := c.GetString(middleware.ContextRole) + ":" + c.GetString(middleware.ContextAccountID)

	if err := h.scanSvc.RevokeConsent(c.Request.Context(), c.Param("id"), actor); err != nil {
		if errors.Is(err, service.ErrSubjectNotFound) {
			response.NotFound(c, 20001, "subject not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// AuditTrail lists a subject's audit entries for partner review.
// GET /subjects/:id/audit
func (h *ScanHandler) AuditTrail(c *gin.Context) {
	entries, err := h.scanSvc.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, entries)
}

func (h *ScanHandler) mapResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenInvalid):
		response.Unauthorized(c, 10002, "token is invalid or expired")
	case errors.Is(err, service.ErrScanNotFound), errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 20001, "scan not found")
	default:
		response.InternalError(c)
	}
}

func versionField(c *gin.Context) (int, error) {
	var body struct {
		Version int `form:"version" binding:"required"`
	}
	if err := c.ShouldBind(&body); err != nil {
		return 0, err
	}
	return body.Version, nil
}
