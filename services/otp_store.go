package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpTTL = 10 * time.Minute

// OTPVerifier is what the auth flow needs from an OTP backend.
type OTPVerifier interface {
	Save(ctx context.Context, email, code string) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

// OTPStore keeps short-lived email verification codes in Redis.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) Save(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, otpKey(email), code, otpTTL).Err()
}

// Verify checks the code and consumes it on success, so a code can be used
// exactly once.
func (s *OTPStore) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	_ = s.client.Del(ctx, otpKey(email)).Err()
	return true, nil
}

func otpKey(email string) string {
	return "otp:" + email
}
