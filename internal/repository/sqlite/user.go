package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/hiroshandev/media-gallery-api/internal/apperror"
	"github.com/hiroshandev/media-gallery-api/internal/model"
	"github.com/hiroshandev/media-gallery-api/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, google_id, avatar, role, is_active,
	is_email_verified, auth_provider, password_hash,
	otp_code, otp_expires_at, password_reset_token, password_reset_expires_at,
	created_at, updated_at`

// Create inserts a new user, generating the ID and timestamps.
//
// The email is normalized before the INSERT, so the UNIQUE index compares
// canonical forms. A UNIQUE violation on email comes back as
// apperror.ErrConflict — this is the only duplicate check that matters
// under concurrency; any "does this email exist" lookup the service did
// beforehand was just a courtesy fast path.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.Email = repository.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, google_id, avatar, role, is_active,
			is_email_verified, auth_provider, password_hash,
			otp_code, otp_expires_at, password_reset_token, password_reset_expires_at,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		nullable(user.GoogleID),
		user.Avatar,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.AuthProvider,
		user.PasswordHash,
		user.OTPCode,
		user.OTPExpiresAt,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: inserting user: %w", apperror.DuplicateAccount(user.Email))
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email. The lookup normalizes first, so
// callers may pass whatever the client typed.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		repository.NormalizeEmail(email),
	)
}

// GetByGoogleID retrieves a user by their linked Google subject id.
func (db *DB) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
}

// Update persists every mutable field of the user and bumps updated_at.
// One write, whole record — linking, OTP changes, and verification flips
// all go through here, so the caller's view is a single atomic save.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.Email = repository.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, google_id = ?, avatar = ?, role = ?,
			is_active = ?, is_email_verified = ?, auth_provider = ?, password_hash = ?,
			otp_code = ?, otp_expires_at = ?,
			password_reset_token = ?, password_reset_expires_at = ?,
			updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		nullable(user.GoogleID),
		user.Avatar,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.AuthProvider,
		user.PasswordHash,
		user.OTPCode,
		user.OTPExpiresAt,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: updating user: %w", apperror.DuplicateAccount(user.Email))
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user record. Used by the registration rollback when the
// verification mail can't be delivered.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// Count returns the total number of user accounts.
func (db *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

// getUser runs a single-row user query and scans it.
func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u        model.User
		googleID sql.NullString
	)

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&googleID,
		&u.Avatar,
		&u.Role,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.AuthProvider,
		&u.PasswordHash,
		&u.OTPCode,
		&u.OTPExpiresAt,
		&u.PasswordResetToken,
		&u.PasswordResetExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	u.GoogleID = googleID.String

	return &u, nil
}

// nullable maps the model's ""-means-unset convention onto SQL NULL so the
// UNIQUE index on google_id doesn't treat two local-only accounts as
// duplicates of each other.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation detects a UNIQUE constraint failure from the sqlite
// driver. modernc.org/sqlite doesn't export a typed error for this, so we
// match the stable message text SQLite itself produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
