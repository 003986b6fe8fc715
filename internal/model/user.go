// Package model defines the data structures used throughout the application.
package model

import "time"

// Role values a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthProvider values — how the account was established.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// DefaultAvatar is used when a user has no profile picture of their own.
const DefaultAvatar = "https://img.freepik.com/premium-vector/man-avatar-profile-picture-isolated-background-avatar-profile-picture-man_1293239-4841.jpg?semt=ais_hybrid&w=740"

// User represents a user account.
//
// An account is created either by local email/password registration
// (AuthProvider "local", pending email verification) or by a first Google
// sign-in (AuthProvider "google", pre-verified). After linking, a single
// account can carry both a password hash and a Google ID.
//
// WHY PasswordHash string (not *string)?
// Provider-only accounts have no password. We use the empty string as the
// "no password set" value rather than a nullable pointer — the auth package
// treats an empty hash as "never matches", so there is no nil to trip over.
//
// SENSITIVE FIELDS:
// PasswordHash, the OTP pair, and the password-reset pair are tagged
// `json:"-"` so they can never leak through an accidental json.Marshal.
// External responses go through Public(), which doesn't carry them at all.
type User struct {
	ID       string `json:"id"       db:"id"`
	Name     string `json:"name"     db:"name"`      // display name, ≤50 chars, trimmed
	Email    string `json:"email"    db:"email"`     // unique, stored lowercased+trimmed
	GoogleID string `json:"googleId" db:"google_id"` // Google's subject id ("" if not linked)
	Avatar   string `json:"avatar"   db:"avatar"`

	Role            string `json:"role"            db:"role"`
	IsActive        bool   `json:"isActive"        db:"is_active"`
	IsEmailVerified bool   `json:"isEmailVerified" db:"is_email_verified"`
	AuthProvider    string `json:"authProvider"    db:"auth_provider"`

	PasswordHash string `json:"-" db:"password_hash"` // bcrypt hash ("" = no password set)

	// Registration-verification OTP slot.
	OTPCode      string     `json:"-" db:"otp_code"`
	OTPExpiresAt *time.Time `json:"-" db:"otp_expires_at"`

	// Password-reset slot. Same shape as the OTP slot but independent —
	// a pending registration OTP and a pending reset code never clobber
	// each other.
	PasswordResetToken     string     `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the external projection of a User — what API responses
// carry. It structurally cannot contain the password hash, OTP state, or
// reset token: those fields simply don't exist on it.
type PublicUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	Avatar          string `json:"avatar"`
	AuthProvider    string `json:"authProvider"`
}

// Public returns the sanitized projection of the user for API responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		Avatar:          u.Avatar,
		AuthProvider:    u.AuthProvider,
	}
}

// HasPassword reports whether the account has a local password set.
// Provider-only accounts (Google sign-in, never linked) don't.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
