// Package auth — one-time password (OTP) generation and verification.
//
// An OTP proves control of an email address: we mail a short code and the
// user echoes it back within a bounded validity window. Two flows share the
// mechanism with independent state slots on the user record:
//
//   - registration verification → OTPCode / OTPExpiresAt
//   - password reset            → PasswordResetToken / PasswordResetExpiresAt
//
// Separate slots mean a pending registration OTP and a pending reset code
// for the same account never clobber each other.
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/hiroshandev/media-gallery-api/internal/model"
)

// OTPTTL is how long an issued code stays valid. The expiry is absolute —
// measured from issuance, not from last use.
const OTPTTL = 10 * time.Minute

// otpFormat matches exactly six ASCII digits. Anything else — wrong
// length, letters, embedded whitespace — is rejected before any state is
// consulted.
var otpFormat = regexp.MustCompile(`^[0-9]{6}$`)

// GenerateOTP returns a uniformly random 6-digit code in [100000, 999999].
//
// WHY crypto/rand AND WHY THAT RANGE?
// math/rand is predictable if the seed leaks; OTPs are security tokens, so
// we use the OS CSPRNG. The range starts at 100000 so the code can never
// have a leading zero — "042311" vs "42311" confusion between what we store
// and what a user types can't happen.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("auth: generating otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// IsValidOTPFormat reports whether s looks like an OTP at all.
func IsValidOTPFormat(s string) bool {
	return otpFormat.MatchString(s)
}

// IssueOTP generates a fresh registration OTP on the user, overwriting any
// prior pending code, and returns it so the caller can mail it.
// The mutation is in-memory — the caller persists the user.
func IssueOTP(u *model.User) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(OTPTTL)
	u.OTPCode = code
	u.OTPExpiresAt = &expires
	return code, nil
}

// VerifyOTP reports whether candidate matches the user's pending
// registration OTP. True only if a code is stored, unexpired, and
// string-equal to the candidate. It does NOT clear the code — callers
// decide when to burn it (registration clears on success).
func VerifyOTP(u *model.User, candidate string) bool {
	return verifySlot(u.OTPCode, u.OTPExpiresAt, candidate)
}

// ClearOTP unconditionally removes the registration OTP slot.
func ClearOTP(u *model.User) {
	u.OTPCode = ""
	u.OTPExpiresAt = nil
}

// IssuePasswordResetOTP, VerifyPasswordResetOTP and ClearPasswordResetOTP
// mirror the registration trio on the independent reset slot.

func IssuePasswordResetOTP(u *model.User) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(OTPTTL)
	u.PasswordResetToken = code
	u.PasswordResetExpiresAt = &expires
	return code, nil
}

func VerifyPasswordResetOTP(u *model.User, candidate string) bool {
	return verifySlot(u.PasswordResetToken, u.PasswordResetExpiresAt, candidate)
}

func ClearPasswordResetOTP(u *model.User) {
	u.PasswordResetToken = ""
	u.PasswordResetExpiresAt = nil
}

// verifySlot is the shared check: code present, not expired, exact string
// match. String comparison, not numeric — "000000" must never equal "0"
// even though the generation range makes leading zeros impossible.
func verifySlot(code string, expiresAt *time.Time, candidate string) bool {
	if code == "" || expiresAt == nil {
		return false
	}
	if time.Now().After(*expiresAt) {
		return false
	}
	return code == candidate
}
