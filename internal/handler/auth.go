// Package handler contains the HTTP handlers for the authentication API.
package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/xid"

	"github.com/hiroshandev/media-gallery-api/internal/auth"
	"github.com/hiroshandev/media-gallery-api/internal/model"
	"github.com/hiroshandev/media-gallery-api/internal/service"
)

// oauthSessionName is the cookie session that carries the OAuth handshake
// state between the redirect to Google and the callback. That's its only
// job — authenticated requests use Bearer tokens, never this session.
const oauthSessionName = "mg_oauth"

// AuthHandler exposes the authentication flows over HTTP.
//
// DEPENDENCY CHAIN:
//   - svc      *service.AuthService  → all business rules
//   - google   *auth.GoogleProvider  → OAuth code exchange
//   - sessions sessions.Store        → OAuth handshake state (cookie-backed)
type AuthHandler struct {
	svc      *service.AuthService
	google   *auth.GoogleProvider
	sessions sessions.Store
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	svc *service.AuthService,
	google *auth.GoogleProvider,
	store sessions.Store,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		google:   google,
		sessions: store,
		logger:   logger,
	}
}

// tokenResponse is the one success shape every authenticated entry point
// returns — password login, OTP verification, and the Google callback all
// look identical to the client.
type tokenResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

func writeTokenResponse(w http.ResponseWriter, status int, message string, res *service.AuthResult) {
	writeJSON(w, status, tokenResponse{
		Success: true,
		Message: message,
		Token:   res.Token,
		User:    res.User.Public(),
	})
}

// HandleRegister starts local registration.
//
// HTTP: POST /api/auth/register
// Body: {"name": "...", "email": "...", "password": "..."}
//
// Responds 201 with {success, message, userId, email} — no token. The
// token comes from /api/auth/verify-email once the mailed OTP round-trips.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful. Please check your email for OTP verification.",
		"userId":  user.ID,
		"email":   user.Email,
	})
}

// HandleVerifyEmail completes registration with the mailed OTP.
//
// HTTP: POST /api/auth/verify-email
// Body: {"email": "...", "otp": "123456"}
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	writeTokenResponse(w, http.StatusOK, "Email verified successfully", res)
}

// HandleResendOTP re-issues the registration OTP for an unverified account.
//
// HTTP: POST /api/auth/resend-otp
// Body: {"email": "..."}
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent. Please check your email.",
	})
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
// Body: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeTokenResponse(w, http.StatusOK, "Login successful", res)
}

// HandleGoogleLogin redirects the user to Google's consent page.
//
// HTTP: GET /api/auth/google
//
// CSRF PROTECTION VIA STATE:
// We generate a random state, stash it in the cookie session, and send it
// along to Google. The callback only proceeds if Google echoes the same
// state back — proof the flow started here, not on an attacker's page.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	sess, _ := h.sessions.Get(r, oauthSessionName)
	sess.Values["state"] = state
	if err := sess.Save(r, w); err != nil {
		h.logger.Error("google login: saving session", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Message: "Could not start Google sign-in"})
		return
	}

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the Google OAuth flow.
//
// HTTP: GET /api/auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state against the session (CSRF check), then burn it
//  2. Exchange the code for a Google profile
//  3. Resolve the profile to exactly one account (authenticate / link /
//     create — the service decides)
//  4. Respond with the standard token response
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessions.Get(r, oauthSessionName)
	want, _ := sess.Values["state"].(string)
	got := r.URL.Query().Get("state")

	// State is single-use whatever happens next.
	delete(sess.Values, "state")
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)

	if want == "" || got != want {
		h.logger.Warn("google callback: state mismatch",
			slog.String("got", got),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid OAuth state"})
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization",
			slog.String("error", errParam),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Google sign-in was cancelled"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Missing OAuth code"})
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Message: "Google authentication failed"})
		return
	}

	res, err := h.svc.LoginOrRegisterGoogle(r.Context(), profile)
	if err != nil {
		h.logger.Error("google callback: resolving account failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeTokenResponse(w, http.StatusOK, "Google sign-in successful", res)
}

// HandleForgotPassword issues and mails a password-reset OTP.
//
// HTTP: POST /api/auth/forgot-password
// Body: {"email": "..."}
//
// Always 200 for unknown emails — this endpoint must not confirm which
// addresses have accounts.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If an account exists with this email, a reset code has been sent.",
	})
}

// HandleResetPassword sets a new password using the reset OTP.
//
// HTTP: POST /api/auth/reset-password
// Body: {"email": "...", "otp": "123456", "password": "new one"}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successful. You can now log in.",
	})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth attached the user to the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Success: false, Message: "Authentication required."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.Public(),
	})
}

// HandleUsersCount returns the total account count.
//
// HTTP: GET /api/admin/users-count
// Auth: RequireAuth + RequireAdmin
func (h *AuthHandler) HandleUsersCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   n,
	})
}

// decodeBody parses a JSON request body into dst.
//
// Normally the body is plain JSON. Some clients send Content-Type
// text/plain with a JSON-encoded *string* whose contents are the real
// JSON payload ("\"{\\\"name\\\":...}\""). We detect that case — first
// byte is a quote — unwrap the string, and parse again. Anything that
// still doesn't fit the target struct is a 400.
//
// Returns false (response already written) on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Could not read request body"})
		return false
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid request body. Please send JSON data."})
		return false
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid JSON format in request body."})
			return false
		}
		trimmed = []byte(inner)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid JSON format in request body."})
		return false
	}

	return true
}
