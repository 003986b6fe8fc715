// Package repository declares the storage interfaces the service layer
// depends on. Concrete backends live in subpackages (sqlite).
package repository

import (
	"context"
	"strings"

	"github.com/hiroshandev/media-gallery-api/internal/model"
)

// NormalizeEmail lowercases and trims an email address. Every email lookup
// and every stored email goes through this first — "ADA@X.com " and
// "ada@x.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository is the credential store contract.
//
// Create returns apperror.ErrConflict (wrapped) when the normalized email
// already exists — uniqueness is enforced by the store's own constraint,
// not by application-level locking, so concurrent registrations with the
// same email have exactly one winner.
//
// GetByEmail and GetByGoogleID return apperror.ErrNotFound (wrapped) when
// no matching record exists.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
