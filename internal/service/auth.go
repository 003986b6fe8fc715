// Package service — authentication business logic.
//
// AuthService is the orchestrator. It sits between the HTTP handlers and
// the repository/auth/mail collaborators:
//
//	handler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	              ↘ TokenService (JWT)  ↘ PasswordService (bcrypt)
//	              ↘ Mailer (SMTP)
//
// Every flow that can end in "you are now authenticated" — password login,
// OTP-verified registration, Google sign-in — funnels through one place
// that mints the token and bundles the sanitized user, so every entry
// point produces an identically shaped success.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hiroshandev/media-gallery-api/internal/apperror"
	"github.com/hiroshandev/media-gallery-api/internal/auth"
	"github.com/hiroshandev/media-gallery-api/internal/mail"
	"github.com/hiroshandev/media-gallery-api/internal/model"
	"github.com/hiroshandev/media-gallery-api/internal/repository"
)

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    mail.Mailer
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// AuthResult is returned by every operation that authenticates a user.
// It bundles the user record and the issued JWT so the handler can respond
// in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterRequest is the local-registration payload.
//
// The validate tags are the schema: a request that doesn't satisfy them
// fails closed with a validation error before any state is touched. No
// runtime shape-sniffing — if it doesn't parse into this struct, it's a
// 400.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Register starts local registration: validate → duplicate check → create
// pending account with OTP → mail the code.
//
// ROLLBACK ON DELIVERY FAILURE:
// If the OTP mail cannot be sent, the just-created record is deleted and
// DeliveryFailed is returned. A verifiable-looking account that can never
// receive its code would otherwise squat on the email address forever.
//
// Registration does NOT issue a token. The account isn't
// authenticated until the OTP round-trip proves control of the mailbox —
// VerifyEmail is where the first token comes from.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = repository.NormalizeEmail(req.Email)

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	// Courtesy fast path: most duplicates are caught here with a friendly
	// error. The authoritative check is the store's UNIQUE constraint —
	// two concurrent registrations both pass this lookup, and exactly one
	// survives Create.
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", req.Email, apperror.DuplicateAccount(req.Email))
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Avatar:       model.DefaultAvatar,
		Role:         model.RoleUser,
		IsActive:     true,
		AuthProvider: model.ProviderLocal,
		PasswordHash: hash,
	}

	code, err := auth.IssueOTP(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	if err := s.mailer.SendRegistrationOTP(ctx, user.Email, user.Name, code); err != nil {
		// Compensate: the account must not outlive its only chance to be
		// verified. Best-effort delete; if even that fails we log and
		// still report the delivery failure.
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("register: rollback delete failed",
				slog.String("userID", user.ID),
				slog.String("error", delErr.Error()),
			)
		}
		s.logger.Error("register: otp mail delivery failed",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.DeliveryFailed(err)
	}

	s.logger.Info("user registered, pending verification",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// VerifyEmail completes registration: checks the OTP, marks the email
// verified, burns the code, and issues the account's first token.
//
// Every failure is the same InvalidOTP — wrong code, expired code, no
// pending code, and unknown email are indistinguishable to the caller.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp string) (*AuthResult, error) {
	if !auth.IsValidOTPFormat(otp) {
		return nil, apperror.InvalidOTP()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidOTP()
		}
		return nil, fmt.Errorf("service/auth: verifying email: %w", err)
	}

	if !auth.VerifyOTP(user, otp) {
		return nil, apperror.InvalidOTP()
	}

	auth.ClearOTP(user)
	user.IsEmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: saving verified user: %w", err)
	}

	s.logger.Info("email verified", slog.String("userID", user.ID))

	return s.authResult(user)
}

// ResendOTP issues a fresh registration OTP for an unverified account and
// mails it. The account is never deleted here — unlike Register, it
// already existed before this call.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("email", "No account found with this email")
		}
		return fmt.Errorf("service/auth: resending otp: %w", err)
	}

	if user.IsEmailVerified {
		return apperror.ValidationFailed("email", "Email is already verified")
	}

	code, err := auth.IssueOTP(user)
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: saving reissued otp: %w", err)
	}

	if err := s.mailer.SendRegistrationOTP(ctx, user.Email, user.Name, code); err != nil {
		s.logger.Error("resend otp: delivery failed",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return apperror.DeliveryFailed(err)
	}

	return nil
}

// Login authenticates an email/password pair.
//
// All credential failures collapse into one Unauthorized message: unknown
// email, wrong password, and provider-only accounts (no stored hash) must
// be indistinguishable, or the endpoint becomes an account-enumeration
// oracle. A provider-only account simply never matches — false, not an
// error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: login lookup: %w", err)
	}

	if !s.passwords.Matches(user.PasswordHash, password) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("Account is deactivated")
	}

	if !user.IsEmailVerified {
		// Correct password, but the mailbox was never proven. Without this
		// check the OTP gate on registration would be decorative.
		return nil, apperror.Forbidden("Email verification required. Please verify your email first.")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.authResult(user)
}

// LoginOrRegisterGoogle resolves a Google profile to exactly one local
// account:
//
//  1. An account already linked to this Google ID → authenticate it.
//  2. An account with the same email → LINK: attach the Google ID, switch
//     provider, force the email verified (Google verified it for us), and
//     adopt the profile picture only if the account has none of its own.
//     One persisted write.
//  3. Nothing → create a new, fully verified Google account.
//
// Linking takes priority over creation, so a duplicate-account state is
// unreachable from this flow.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, profile *auth.GoogleProfile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: Google profile must not be nil")
	}

	// Branch 1: already linked.
	user, err := s.users.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		s.logger.Info("google sign-in", slog.String("userID", user.ID))
		return s.authResult(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: google id lookup: %w", err)
	}

	// Branch 2: same email exists — link.
	user, err = s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		user.GoogleID = profile.ID
		user.AuthProvider = model.ProviderGoogle
		user.IsEmailVerified = true
		if user.Avatar == "" || user.Avatar == model.DefaultAvatar {
			if profile.Picture != "" {
				user.Avatar = profile.Picture
			}
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: linking google account: %w", err)
		}
		s.logger.Info("google account linked",
			slog.String("userID", user.ID),
			slog.String("googleID", profile.ID),
		)
		return s.authResult(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: email lookup: %w", err)
	}

	// Branch 3: brand new, pre-verified.
	avatar := profile.Picture
	if avatar == "" {
		avatar = model.DefaultAvatar
	}
	user = &model.User{
		Name:            strings.TrimSpace(profile.Name),
		Email:           profile.Email,
		GoogleID:        profile.ID,
		Avatar:          avatar,
		Role:            model.RoleUser,
		IsActive:        true,
		IsEmailVerified: true,
		AuthProvider:    model.ProviderGoogle,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating google user: %w", err)
	}

	s.logger.Info("google user created", slog.String("userID", user.ID))

	return s.authResult(user)
}

// ForgotPassword issues a reset-slot OTP and mails it.
//
// An unknown email is reported as success: confirming which addresses have
// accounts is exactly what a password-reset endpoint must not do. Delivery
// failure clears the slot again but never touches the account itself.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("forgot password for unknown email", slog.String("email", repository.NormalizeEmail(email)))
			return nil
		}
		return fmt.Errorf("service/auth: forgot password lookup: %w", err)
	}

	code, err := auth.IssuePasswordResetOTP(user)
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: saving reset otp: %w", err)
	}

	if err := s.mailer.SendPasswordResetOTP(ctx, user.Email, user.Name, code); err != nil {
		auth.ClearPasswordResetOTP(user)
		if clrErr := s.users.Update(ctx, user); clrErr != nil {
			s.logger.Error("forgot password: clearing undeliverable otp failed",
				slog.String("userID", user.ID),
				slog.String("error", clrErr.Error()),
			)
		}
		return apperror.DeliveryFailed(err)
	}

	return nil
}

// ResetPassword sets a new password after verifying the reset-slot OTP.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if !auth.IsValidOTPFormat(otp) {
		return apperror.InvalidOTP()
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperror.ValidationFailed("password", fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.InvalidOTP()
		}
		return fmt.Errorf("service/auth: reset password lookup: %w", err)
	}

	if !auth.VerifyPasswordResetOTP(user, otp) {
		return apperror.InvalidOTP()
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}

	user.PasswordHash = hash
	auth.ClearPasswordResetOTP(user)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: saving new password: %w", err)
	}

	s.logger.Info("password reset", slog.String("userID", user.ID))

	return nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/auth/me handler after the middleware validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// CountUsers returns the total number of accounts. Admin-only endpoint.
func (s *AuthService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/auth: counting users: %w", err)
	}
	return n, nil
}

// authResult mints the token for an authenticated user. The single funnel
// every successful authentication goes through.
func (s *AuthService) authResult(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// validationError converts a validator.ValidationErrors into our
// apperror shape, reporting the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return apperror.ValidationFailed(field, fmt.Sprintf("%s is required", field))
		case "email":
			return apperror.ValidationFailed(field, "Invalid email format")
		case "min":
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		}
		return apperror.ValidationFailed(field, fmt.Sprintf("%s is invalid", field))
	}
	return apperror.ValidationFailed("", "Validation failed")
}
