package services_test

import (
	"regexp"
	"testing"

	"craftory-backend/apperrors"
	"craftory-backend/services"

	"github.com/stretchr/testify/assert"
)

func TestNewBillID_Format(t *testing.T) {
	id := services.NewBillID()
	assert.Regexp(t, regexp.MustCompile(`^CRAF-\d{14}-[0-9a-f]{4}$`), id)
}

func TestNewRefundID_Format(t *testing.T) {
	id := services.NewRefundID()
	assert.Regexp(t, regexp.MustCompile(`^RFND-\d{14}-[0-9a-f]{4}$`), id)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9876543210", "9876543210", false},
		{"919876543210", "9876543210", false},
		{"+91 98765 43210", "9876543210", false},
		{"09876543210", "9876543210", false},
		{"98765-43210", "9876543210", false},
		{"12345", "", true},
		{"", "", true},
		{"123456789012345", "", true},
	}
	for _, tc := range cases {
		got, err := services.NormalizePhone(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrValidation, "input %q", tc.in)
			continue
		}
		assert.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestPublicCallbackURL(t *testing.T) {
	base := "https://craftory.in"

	assert.Equal(t, "https://craftory.in/payment/callback",
		services.PublicCallbackURL("http://localhost:3000/callback", base))
	assert.Equal(t, "https://craftory.in/payment/callback",
		services.PublicCallbackURL("https://127.0.0.1:8443/cb", base))
	assert.Equal(t, "https://craftory.in/payment/callback",
		services.PublicCallbackURL("http://staging.example.com/cb", base))
	assert.Equal(t, "https://craftory.in/payment/callback",
		services.PublicCallbackURL("", base))

	// An already-public HTTPS URL passes through untouched.
	assert.Equal(t, "https://shop.example.com/cb",
		services.PublicCallbackURL("https://shop.example.com/cb", base))

	// A trailing slash on the base does not double up.
	assert.Equal(t, "https://craftory.in/payment/callback",
		services.PublicCallbackURL("", "https://craftory.in/"))
}
