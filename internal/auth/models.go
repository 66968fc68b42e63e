package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// User is a registered buyer. The UUID doubles as the user_id claim carried
// in tokens; user ids are strings everywhere.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for User
func (User) TableName() string {
	return "users"
}

// JWTClaims are the claims carried by access tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Request bodies

type RegisterRequest struct {
	Email string `json:"email" binding:"required" validate:"required,email"`
}

type VerifyRegisterRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	OTP      string `json:"otp" binding:"required" validate:"required,len=6,numeric"`
	Password string `json:"password" binding:"required" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,min=7"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// AuthResponse is the success body of verify-register and login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}
