package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/api/handler"
	"github.com/gfragi/attendance-app/internal/api/middleware"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/redis"
)

const maxBodyBytes = 4 << 20 // uploads included

// NewRouter wires every route. rdb may be nil when Redis is down; the
// public endpoints then run without rate limiting.
func NewRouter(
	cfg *config.Config,
	h *handler.Handler,
	svc *service.Service,
	db *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(&cfg.Server.CORS),
	)

	r.GET("/health", healthCheck(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// Public student surface: the session token is the only credential.
	public := api.Group("")
	public.Use(
		middleware.BodyLimit(64<<10),
		middleware.RateLimit(rdb, cfg.CheckIn.RateLimit, cfg.CheckIn.RateWindow, logger),
	)
	{
		public.GET("/checkin/:token", h.CheckIn.Preview)
		public.POST("/checkin", h.CheckIn.Submit)
	}

	// Staff surface: identity asserted by the oauth2 proxy upstream.
	staff := api.Group("")
	staff.Use(
		middleware.BodyLimit(maxBodyBytes),
		middleware.Identity(svc.User, logger),
	)
	{
		staff.GET("/me", h.User.Me)

		admin := staff.Group("", middleware.RoleAuth(model.RoleAdmin))
		{
			admin.POST("/users", h.User.Create)
			admin.GET("/users", h.User.List)
			admin.GET("/users/:id", h.User.Get)
			admin.PATCH("/users/:id", h.User.Update)

			admin.POST("/courses", h.Course.Create)
			admin.PATCH("/courses/:id", h.Course.Update)
			admin.POST("/courses/:id/instructors", h.Course.Assign)
			admin.DELETE("/courses/:id/instructors/:user_id", h.Course.Unassign)

			admin.POST("/import/courses", h.Import.Upload)
		}

		teaching := staff.Group("", middleware.RoleAuth(model.RoleAdmin, model.RoleInstructor))
		{
			teaching.GET("/courses", h.Course.List)
			teaching.GET("/courses/mine", h.Course.Mine)
			teaching.GET("/courses/:id", h.Course.Get)

			teaching.POST("/sessions", h.Session.Open)
			teaching.GET("/sessions", h.Session.List)
			teaching.GET("/sessions/:id", h.Session.Get)
			teaching.POST("/sessions/:id/close", h.Session.Close)
			teaching.POST("/sessions/:id/extend", h.Session.Extend)
			teaching.GET("/sessions/:id/qr", h.Session.QR)

			teaching.GET("/reports", h.Report.Get)
			teaching.GET("/reports/export", h.Report.Export)
		}
	}

	return r
}

// healthCheck pings the database and Redis. Redis being down degrades
// the response but does not fail it.
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbStatus = "down"
			status = http.StatusServiceUnavailable
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "up"
			if !rdb.Healthy(c.Request.Context()) {
				redisStatus = "down"
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
