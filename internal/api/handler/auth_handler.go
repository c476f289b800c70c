package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scanlink/backend/internal/api/middleware"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/service"
	"scanlink/backend/pkg/response"
)

// AuthHandler serves the teacher-portal account routes.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates the AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login authenticates a teacher.
// POST /teacher/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "email and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 11001, "email or password is incorrect")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Register creates a teacher account.
// POST /teacher/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "name, email and a password of at least 8 characters are required")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, 11002, "an account with this email already exists")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Me returns the authenticated teacher's account.
// GET /teacher/me
func (h *AuthHandler) Me(c *gin.Context) {
	teacherID := c.GetString(middleware.ContextAccountID)

	result, err := h.authSvc.Me(c.Request.Context(), teacherID)
	if err != nil {
		if errors.Is(err, service.ErrTeacherNotFound) {
			response.NotFound(c, 11003, "account not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
