package services

import (
	"context"
	"errors"
	"strings"

	"craftory-backend/apperrors"
	"craftory-backend/models"
	"craftory-backend/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration with email OTP verification and login.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
	otps   OTPVerifier
	email  EmailSender
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *TokenService, otps OTPVerifier, email EmailSender, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, otps: otps, email: email, logger: logger}
}

// Register creates an unverified user and sends an OTP to their email.
func (s *AuthService) Register(ctx context.Context, name, email, password, phone string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.Validation("name and a valid email are required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	if phone != "" {
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Validation("an account with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Phone:    phone,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	code := GenerateRandomCode(6)
	if err := s.otps.Save(ctx, email, code); err != nil {
		return nil, err
	}
	go func() {
		if err := s.email.SendOTP(email, code); err != nil {
			s.logger.Error("Failed to send OTP email", zap.String("email", email), zap.Error(err))
		}
	}()

	return user, nil
}

// VerifyOTP consumes the code and marks the user verified.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	ok, err := s.otps.Verify(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("invalid or expired verification code")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, user.ID)
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.ErrUnauthorized
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, apperrors.ErrUnauthorized
	}
	if !user.Verified {
		return "", nil, apperrors.Validation("email is not verified")
	}

	token, err := s.tokens.GenerateJWT(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
