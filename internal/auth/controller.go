package auth

import (
	"errors"
	"net/http"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Register handles POST /api/auth/register: triggers OTP delivery.
func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "validation failed")
		return
	}

	if err := c.service.Register(ctx.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.Error(ctx, http.StatusConflict, "email already registered")
		default:
			response.Error(ctx, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	response.Success(ctx, http.StatusOK, nil)
}

// VerifyRegister handles POST /api/auth/verify-register.
func (c *Controller) VerifyRegister(ctx *gin.Context) {
	var req VerifyRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "validation failed")
		return
	}

	resp, err := c.service.VerifyRegister(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOTP):
			response.Error(ctx, http.StatusBadRequest, "invalid or expired code")
		default:
			response.Error(ctx, http.StatusInternalServerError, "failed to verify registration")
		}
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// Login handles POST /api/auth/login.
func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "validation failed")
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(ctx, http.StatusUnauthorized, "invalid email or password")
		default:
			response.Error(ctx, http.StatusInternalServerError, "failed to login")
		}
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
