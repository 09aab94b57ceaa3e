package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var ErrGoogleDisabled = errors.New("google sign-in is not configured")

type GoogleConfig struct {
	Config *oauth2.Config
	// HTTPClient is used for the tokeninfo call; nil means http.DefaultClient.
	HTTPClient *http.Client
	// Overridable for tests.
	TokenInfoURL string
	UserInfoURL  string
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
}

// Subject returns the stable Google account id from either endpoint's payload.
func (u *GoogleUserInfo) Subject() string {
	if u.Sub != "" {
		return u.Sub
	}
	return u.ID
}

// NewGoogleConfig returns nil when no client credentials are configured.
func NewGoogleConfig(cfg GoogleOAuth) *GoogleConfig {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &GoogleConfig{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		TokenInfoURL: googleTokenInfoURL,
		UserInfoURL:  googleUserInfoURL,
	}
}

func (g *GoogleConfig) client() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}

// VerifyIDToken checks an ID token against Google and that it was issued for this client.
func (g *GoogleConfig) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleDisabled
	}
	endpoint := g.TokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	info, err := g.fetch(ctx, g.client(), endpoint)
	if err != nil {
		return nil, err
	}
	if info.Audience != g.Config.ClientID {
		return nil, errors.New("id token audience mismatch")
	}
	return info, nil
}

// ExchangeCode trades an authorization code for the signed-in user's profile.
func (g *GoogleConfig) ExchangeCode(ctx context.Context, code, redirectURI string) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleDisabled
	}
	conf := *g.Config
	if redirectURI != "" {
		conf.RedirectURL = redirectURI
	}
	if g.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.HTTPClient)
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return g.fetch(ctx, conf.Client(ctx, token), g.UserInfoURL)
}

func (g *GoogleConfig) fetch(ctx context.Context, client *http.Client, endpoint string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google rejected the credential: status %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if userInfo.Email == "" {
		return nil, errors.New("google account has no email")
	}
	return &userInfo, nil
}
