package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authorizeURL = "https://sandbox-www.tiktok.com/auth/authorize/"
	tokenURL     = "https://sandbox-open.tiktokapis.com/v2/oauth/token/"
	userInfoURL  = "https://sandbox-open.tiktokapis.com/v2/user/info/"

	// oauthScopes are the scopes requested when connecting an account.
	oauthScopes = "user.info.basic,video.upload,video.list"
)

// TokenResult is the result of an authorization code exchange.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	OpenID       string
}

// UserInfo is the TikTok profile of a connected account.
type UserInfo struct {
	OpenID      string
	Username    string
	DisplayName string
	AvatarURL   string
}

// Client defines the interface for the TikTok Open API calls the app needs.
type Client interface {
	// AuthorizeURL builds the user-facing authorization URL.
	AuthorizeURL(redirectURI, state string) string
	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResult, error)
	// GetUserInfo fetches the profile for an access token.
	GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// APIClient talks to the TikTok sandbox Open API.
type APIClient struct {
	clientKey    string
	clientSecret string
	http         *http.Client
}

// Ensure APIClient implements Client.
var _ Client = (*APIClient)(nil)

// New creates a new TikTok API client.
func New(clientKey, clientSecret string) *APIClient {
	return &APIClient{
		clientKey:    clientKey,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the authorization URL with CSRF state.
func (c *APIClient) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_key", c.clientKey)
	q.Set("response_type", "code")
	q.Set("scope", oauthScopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return authorizeURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	OpenID       string `json:"open_id"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for an access token.
// TikTok uses client_key instead of the standard client_id form field.
func (c *APIClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResult, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		if body.ErrorDesc != "" {
			return nil, fmt.Errorf("token exchange failed: %s", body.ErrorDesc)
		}
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	return &TokenResult{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
		OpenID:       body.OpenID,
	}, nil
}

type userInfoResponse struct {
	Data struct {
		User struct {
			OpenID      string `json:"open_id"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		} `json:"user"`
	} `json:"data"`
}

// GetUserInfo fetches the profile of the token's owner.
func (c *APIClient) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var body userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding user info response: %w", err)
	}

	u := body.Data.User
	return &UserInfo{
		OpenID:      u.OpenID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}, nil
}
