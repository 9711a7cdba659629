package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	OTPLength        = 6
	VerificationTTL  = 24 * time.Hour
	PasswordResetTTL = 5 * time.Minute
)

var otpLimit = big.NewInt(1_000_000)

// GenerateOTP returns a zero-padded six digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpLimit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
