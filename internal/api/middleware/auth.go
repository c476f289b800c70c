package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/response"
)

// Context keys set by the auth middlewares.
const (
	ContextAccountID = "account_id"
	ContextScanID    = "scan_id"
	ContextSubjectID = "subject_id"
	ContextRole      = "role"
)

// StudentCookieName is the HTTP-only cookie carrying the student token.
const StudentCookieName = "studentToken"

// BearerAuth verifies the Authorization: Bearer <token> header and
// injects the claims into the request context.
func BearerAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.Parse(parts[1])
		if err != nil {
			// Expired and tampered collapse to one 401 at the boundary.
			response.Unauthorized(c, 10002, "token is invalid or expired")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// StudentCookieAuth verifies the studentToken cookie for student-scoped
// routes. The cookie is HTTP-only and SameSite=Strict; it is set by the
// student link flow, never by script.
func StudentCookieAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(StudentCookieName)
		if err != nil || token == "" {
			response.Unauthorized(c, 10002, "missing student session")
			c.Abort()
			return
		}

		claims, err := jwtMgr.Parse(token)
		if err != nil {
			response.Unauthorized(c, 10002, "student session is invalid or expired")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RoleAuth allows only the listed roles through.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient role")
		c.Abort()
	}
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextAccountID, claims.SubjectID)
	c.Set(ContextSubjectID, claims.SubjectID)
	c.Set(ContextScanID, claims.ScanID)
	c.Set(ContextRole, claims.Role)
}
