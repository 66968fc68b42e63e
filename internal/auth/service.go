package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrInvalidToken       = errors.New("invalid token")
)

// OTPSender delivers one-time codes out of band. Delivery is best-effort from
// the caller's perspective; the OTP is stored before the send is attempted.
type OTPSender interface {
	SendOTP(ctx context.Context, email, otp string)
}

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) error
	VerifyRegister(ctx context.Context, req *VerifyRegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*JWTClaims, error)
}

type service struct {
	repo   Repository
	config *config.Config
	sender OTPSender
	logger *logger.Logger
}

// NewService creates the authentication service. sender may be nil.
func NewService(repo Repository, cfg *config.Config, sender OTPSender) Service {
	return &service{
		repo:   repo,
		config: cfg,
		sender: sender,
		logger: logger.GetDefault(),
	}
}

// Register issues a registration OTP for a new email.
func (s *service) Register(ctx context.Context, req *RegisterRequest) error {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserAlreadyExists
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.repo.StoreOTP(ctx, req.Email, otp, s.config.Reservation.OTPTTL); err != nil {
		return err
	}

	if s.sender != nil {
		s.sender.SendOTP(ctx, req.Email, otp)
	}

	return nil
}

// VerifyRegister checks the OTP and creates the user account.
func (s *service) VerifyRegister(ctx context.Context, req *VerifyRegisterRequest) (*AuthResponse, error) {
	stored, err := s.repo.ConsumeOTP(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if stored != req.OTP {
		return nil, ErrInvalidOTP
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Phone:    req.Phone,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID.String(),
	}, nil
}

// Login verifies credentials and issues a token.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID.String(),
	}, nil
}

func (s *service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWT.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (s *service) generateToken(userID, email string) (string, error) {
	now := time.Now()

	claims := JWTClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.ExpiresIn)),
			Issuer:    "tkitmaster",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWT.Secret))
}

// generateOTP produces a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
