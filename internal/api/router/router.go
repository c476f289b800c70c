package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scanlink/backend/config"
	"scanlink/backend/internal/api/handler"
	"scanlink/backend/internal/api/middleware"
	"scanlink/backend/internal/model"
	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/redis"
)

// maxUploadBytes caps the multipart image submission (a handful of
// JPEG mouth views).
const maxUploadBytes = 20 << 20

// Setup builds the Gin engine and registers every route.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// Unauthenticated entry points printed on QR posters get a per-IP
	// budget; everything else is gated by tokens already.
	publicRate := middleware.RateLimit(rdb, 60, time.Minute)

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── public link entry points (historical paths, no auth) ──
	r.POST("/demo/create", publicRate, h.Scan.CreateDemo)
	r.GET("/ps/:code", publicRate, h.Scan.PatientLink)
	r.GET("/r/:code", publicRate, h.Scan.ShortCodeRedirect)
	r.GET("/patient-scan/resolve", publicRate, h.Scan.ResolveToken)

	// ── scan lifecycle ──
	multiuse := r.Group("/multiuse")
	{
		multiuse.POST("/register", h.Scan.RegisterIntake)
		multiuse.GET("/results", h.Scan.Results) // token in query string

		authorized := multiuse.Group("")
		authorized.Use(middleware.BearerAuth(jwtMgr))
		{
			authorized.POST("/scans/:id/images", middleware.BodyLimit(maxUploadBytes), h.Scan.Submit)
			authorized.POST("/scans/:id/result",
				middleware.RoleAuth(model.RoleClinic, model.RoleNurse),
				h.Scan.DeliverResult)
		}
	}

	// ── student portal (cookie auth) ──
	student := r.Group("/student")
	student.Use(middleware.StudentCookieAuth(jwtMgr))
	{
		student.GET("/scan", h.Scan.StudentScan)
	}

	// ── teacher portal ──
	teacher := r.Group("/teacher")
	{
		teacher.POST("/login", h.Auth.Login)
		teacher.POST("/register", h.Auth.Register)

		authorized := teacher.Group("")
		authorized.Use(middleware.BearerAuth(jwtMgr), middleware.RoleAuth(model.RoleTeacher))
		{
			authorized.GET("/me", h.Auth.Me)
			authorized.GET("/classes/:id/participation", h.Export.Participation)
		}
	}

	// ── consent ──
	r.DELETE("/subjects/:id/consent",
		middleware.BearerAuth(jwtMgr),
		middleware.RoleAuth(model.RoleParent, model.RoleClinic, model.RoleNurse),
		h.Scan.RevokeConsent)
	r.GET("/subjects/:id/audit",
		middleware.BearerAuth(jwtMgr),
		middleware.RoleAuth(model.RoleParent, model.RoleClinic, model.RoleNurse),
		h.Scan.AuditTrail)

	// ── marketing and donations ──
	r.POST("/leads", publicRate, h.Lead.Capture)
	r.POST("/donations/checkout", h.Lead.CreateCheckout)

	return r
}
