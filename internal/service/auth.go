package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// AuthService handles registration with email OTP verification, login,
// JWT token management and password changes.
type AuthService struct {
	store      port.AuthStore
	email      port.EmailSender
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	otpTTL     time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, email port.EmailSender, jwtSecret string, accessTTL, refreshTTL, otpTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		email:      email,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		otpTTL:     otpTTL,
		logger:     logger,
	}
}

// ============================================================
// Register backs POST /v1/auth/register.
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "must be a valid email address"}
	}
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil && existing.IsVerified {
		return nil, &domain.ErrConflict{Message: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := existing
	if user == nil {
		now := time.Now().UTC()
		user = &domain.User{
			ID:           uuid.New().String(),
			Email:        email,
			Name:         req.Name,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	} else {
		// Unverified re-registration replaces the password and resends a code.
		if err := s.store.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	otp := &domain.UserOTP{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.store.StoreOTP(ctx, otp); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.email.SendOTP(ctx, user.Email, code); err != nil {
		s.logger.Error("failed to send verification email",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("user registered, verification code sent",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)
	return user, nil
}

// ============================================================
// VerifyOTP backs POST /v1/auth/verify-otp.
// ============================================================

func (s *AuthService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.VerifyOTP")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrInvalidCode{}
	}

	otp, err := s.store.GetValidOTP(ctx, user.ID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	if otp == nil {
		return nil, &domain.ErrInvalidCode{}
	}

	if err := s.store.MarkOTPUsed(ctx, otp.ID); err != nil {
		return nil, fmt.Errorf("mark otp used: %w", err)
	}
	if err := s.store.MarkUserVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("mark user verified: %w", err)
	}
	user.IsVerified = true

	s.logger.Info("user verified", zap.String("user_id", user.ID))
	return s.issueTokens(ctx, user)
}

// ============================================================
// Login backs POST /v1/auth/login.
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("email", req.Email))

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	if !user.IsVerified {
		return nil, &domain.ErrUnauthorized{Message: "email not verified"}
	}

	_ = s.store.TouchLastLogin(ctx, user.ID)

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return s.issueTokens(ctx, user)
}

// ============================================================
// ChangePassword backs PUT /v1/auth/password.
// ============================================================

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return &domain.ErrUnauthorized{Message: "current password is incorrect"}
	}
	if len(req.NewPassword) < minPasswordLength {
		return &domain.ErrValidation{Field: "new_password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Force re-login everywhere else.
	_ = s.store.RevokeAllRefreshTokens(ctx, userID)

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// generateOTPCode returns a 6-digit numeric verification code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
