package auth

import (
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes wires the authentication endpoints under /auth, all behind
// the auth rate-limit bucket.
func SetupAuthRoutes(rg *gin.RouterGroup, ctrl *Controller, limiter *ratelimit.RateLimiter) {
	group := rg.Group("/auth")
	if limiter != nil {
		group.Use(ratelimit.Middleware(limiter, ratelimit.BucketAuth))
	}

	group.POST("/register", ctrl.Register)
	group.POST("/verify-register", ctrl.VerifyRegister)
	group.POST("/login", ctrl.Login)
}
