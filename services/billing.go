package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"craftory-backend/apperrors"
)

const (
	billIDPrefix   = "CRAF"
	refundIDPrefix = "RFND"
)

// NewBillID generates the internal idempotency key correlating a gateway
// order with the local row: prefix, compact timestamp, short random suffix.
func NewBillID() string {
	return newPrefixedID(billIDPrefix)
}

// NewRefundID generates a locally-unique refund id, independent of whatever
// id the gateway assigns.
func NewRefundID() string {
	return newPrefixedID(refundIDPrefix)
}

func newPrefixedID(prefix string) string {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		// Entropy failure is effectively impossible; timestamp still
		// disambiguates within the same second.
		suffix = []byte{0, 0}
	}
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102150405"), hex.EncodeToString(suffix))
}

// NormalizePhone strips a country-code or trunk prefix and requires exactly
// ten digits.
func NormalizePhone(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case len(digits) == 10:
		return digits, nil
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:], nil
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:], nil
	default:
		return "", apperrors.Validation("phone must be a 10-digit number")
	}
}

// PublicCallbackURL substitutes the configured public HTTPS base for local
// development hosts. Gateways reject non-HTTPS callback URLs, so a
// localhost-built URL must never reach them.
func PublicCallbackURL(rawURL, publicBase string) string {
	lower := strings.ToLower(rawURL)
	if rawURL == "" ||
		strings.Contains(lower, "localhost") ||
		strings.Contains(lower, "127.0.0.1") ||
		strings.HasPrefix(lower, "http://") {
		return strings.TrimRight(publicBase, "/") + "/payment/callback"
	}
	return rawURL
}
