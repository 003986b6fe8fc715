package auth

import (
	"testing"
	"time"

	"github.com/hiroshandev/media-gallery-api/internal/model"
)

// =========================================================================
// GENERATION TESTS
// =========================================================================

func TestGenerateOTP_AlwaysSixDigitsNoLeadingZero(t *testing.T) {
	// The range [100000, 999999] makes a leading zero structurally
	// impossible. Sample a bunch of codes and check the shape holds.
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("GenerateOTP() = %q, want exactly 6 digits", code)
		}
		if code[0] == '0' {
			t.Fatalf("GenerateOTP() = %q, leading zero should be impossible", code)
		}
		if !IsValidOTPFormat(code) {
			t.Fatalf("GenerateOTP() = %q fails its own format validator", code)
		}
	}
}

func TestIsValidOTPFormat(t *testing.T) {
	tests := []struct {
		name string
		otp  string
		want bool
	}{
		{"six digits", "483920", true},
		{"all zeros", "000000", true}, // valid shape, even if never generated
		{"too short", "12345", false},
		{"too long", "1234567", false},
		{"letters", "12a456", false},
		{"leading whitespace", " 123456", false},
		{"trailing whitespace", "123456 ", false},
		{"embedded newline", "123\n456", false},
		{"empty", "", false},
		{"signed", "+12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidOTPFormat(tt.otp); got != tt.want {
				t.Errorf("IsValidOTPFormat(%q) = %v, want %v", tt.otp, got, tt.want)
			}
		})
	}
}

// =========================================================================
// ISSUE / VERIFY / CLEAR TESTS
// =========================================================================

func TestIssueOTP_StoresCodeWithTenMinuteExpiry(t *testing.T) {
	u := &model.User{}

	before := time.Now()
	code, err := IssueOTP(u)
	if err != nil {
		t.Fatalf("IssueOTP() error = %v", err)
	}

	if u.OTPCode != code {
		t.Errorf("stored code %q != returned code %q", u.OTPCode, code)
	}
	if u.OTPExpiresAt == nil {
		t.Fatal("OTPExpiresAt not set")
	}

	want := before.Add(OTPTTL)
	if u.OTPExpiresAt.Before(want.Add(-time.Second)) || u.OTPExpiresAt.After(want.Add(2*time.Second)) {
		t.Errorf("OTPExpiresAt = %v, want ≈ %v", u.OTPExpiresAt, want)
	}
}

func TestIssueOTP_OverwritesPriorCode(t *testing.T) {
	u := &model.User{}

	first, _ := IssueOTP(u)
	second, _ := IssueOTP(u)

	if VerifyOTP(u, first) && first != second {
		t.Error("VerifyOTP() accepted the overwritten code")
	}
	if !VerifyOTP(u, second) {
		t.Error("VerifyOTP() rejected the current code")
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	u := &model.User{}
	code, _ := IssueOTP(u)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if VerifyOTP(u, wrong) {
		t.Error("VerifyOTP() accepted a wrong code")
	}
}

func TestVerifyOTP_ExpiredAlwaysFails(t *testing.T) {
	u := &model.User{}
	code, _ := IssueOTP(u)

	// Expiry is absolute: even the correct code fails once past it.
	past := time.Now().Add(-time.Minute)
	u.OTPExpiresAt = &past

	if VerifyOTP(u, code) {
		t.Error("VerifyOTP() accepted an expired code")
	}
}

func TestVerifyOTP_ClearedAlwaysFails(t *testing.T) {
	u := &model.User{}
	code, _ := IssueOTP(u)

	ClearOTP(u)

	if VerifyOTP(u, code) {
		t.Error("VerifyOTP() accepted a cleared code")
	}
	if u.OTPCode != "" || u.OTPExpiresAt != nil {
		t.Error("ClearOTP() left state behind")
	}
}

func TestVerifyOTP_NeverIssued(t *testing.T) {
	u := &model.User{}

	if VerifyOTP(u, "123456") {
		t.Error("VerifyOTP() accepted a code when none was ever issued")
	}
}

// =========================================================================
// SLOT INDEPENDENCE TESTS
// =========================================================================

func TestResetSlot_IndependentFromRegistrationSlot(t *testing.T) {
	u := &model.User{}

	regCode, _ := IssueOTP(u)
	resetCode, _ := IssuePasswordResetOTP(u)

	// Issuing a reset code must not disturb the registration slot, and
	// vice versa — the two flows run concurrently on one record.
	if !VerifyOTP(u, regCode) {
		t.Error("registration OTP lost after issuing a reset code")
	}
	if !VerifyPasswordResetOTP(u, resetCode) {
		t.Error("reset OTP not stored")
	}

	// Codes don't cross slots even if they happen to collide in value.
	ClearPasswordResetOTP(u)
	if VerifyPasswordResetOTP(u, resetCode) {
		t.Error("reset slot survived ClearPasswordResetOTP")
	}
	if !VerifyOTP(u, regCode) {
		t.Error("clearing the reset slot clobbered the registration slot")
	}
}
