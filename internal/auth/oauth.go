package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProfile is the portion of Google's userinfo response we care about.
// Google returns a larger object — we only unmarshal the fields we need.
type GoogleProfile struct {
	ID      string `json:"id"`      // Google's subject id — stable, never changes
	Email   string `json:"email"`   // Verified by Google before we ever see it
	Name    string `json:"name"`    // Display name
	Picture string `json:"picture"` // Profile picture URL (may be empty)
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization
// Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Our server redirects the user to Google's consent page with our
//     ClientID and requested scopes.
//  2. The user approves; Google redirects back to our CallbackURL with a
//     short-lived "code".
//  3. Our server exchanges the code for an access token — server-to-server,
//     using the ClientSecret, so the token never touches the browser.
//  4. Our server calls the userinfo API with that token.
type GoogleProvider struct {
	config      *oauth2.Config
	userinfoURL string
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// ClientID and ClientSecret come from the Google Cloud console ("APIs &
// Services" → "Credentials" → "OAuth 2.0 Client IDs"). callbackURL must
// exactly match an authorized redirect URI configured there.
//
// Scopes: "email" and "profile" — identity only, no Drive/Gmail access.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// AuthURL returns the Google consent page URL to redirect the user to.
//
// The state parameter is a random string the caller stores server-side
// (session) before redirecting; the callback handler verifies the returned
// state matches. This prevents CSRF attacks completing an OAuth flow the
// user never started.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google profile. This is the core of the callback handler.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("auth: Google returned an incomplete profile")
	}

	return &profile, nil
}
