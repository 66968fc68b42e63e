package seats

import (
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/middleware"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// SetupSeatRoutes wires the reservation endpoints.
//
//	GET  /seats   - public snapshot
//	POST /lock    - authenticated, rate-limited (hold bucket)
//	POST /release - unauthenticated, permissive
//	POST /pay     - authenticated
//	POST /reset   - unauthenticated admin reset (known limitation)
func SetupSeatRoutes(rg *gin.RouterGroup, ctrl *Controller, cfg *config.Config, limiter *ratelimit.RateLimiter) {
	rg.GET("/seats", ctrl.List)

	lock := rg.Group("")
	if limiter != nil {
		lock.Use(ratelimit.Middleware(limiter, ratelimit.BucketHold))
	}
	lock.POST("/lock", middleware.JWTAuth(cfg), ctrl.Lock)

	rg.POST("/release", ctrl.Release)
	rg.POST("/pay", middleware.JWTAuth(cfg), ctrl.Pay)
	rg.POST("/reset", ctrl.Reset)
}
