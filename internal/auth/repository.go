package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repository persists users in the ledger and OTPs in the hot state.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	StoreOTP(ctx context.Context, email, otp string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, email string) (string, error)
}

type repository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewRepository(db *gorm.DB, redisClient *redis.Client) Repository {
	return &repository{db: db, redis: redisClient}
}

func (r *repository) CreateUser(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func otpKey(email string) string {
	return "otp:" + email
}

func (r *repository) StoreOTP(ctx context.Context, email, otp string, ttl time.Duration) error {
	if err := r.redis.Set(ctx, otpKey(email), otp, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// ConsumeOTP reads and deletes the OTP in one round trip so a code cannot be
// replayed.
func (r *repository) ConsumeOTP(ctx context.Context, email string) (string, error) {
	otp, err := r.redis.GetDel(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return "", ErrInvalidOTP
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return otp, nil
}
