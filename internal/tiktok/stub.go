package tiktok

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Stub is a testing implementation that fabricates accounts without calling
// the TikTok API. Each distinct code maps to a distinct fake account.
type Stub struct {
	label string
}

// Ensure Stub implements Client.
var _ Client = (*Stub)(nil)

// NewStub creates a stub client. The label is included in fabricated
// usernames to make stubbed data recognizable.
func NewStub(label string) *Stub {
	if label == "" {
		label = "stub"
	}
	return &Stub{label: label}
}

// AuthorizeURL builds a URL of the same shape as the real one.
func (s *Stub) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_key", s.label)
	q.Set("response_type", "code")
	q.Set("scope", oauthScopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return authorizeURL + "?" + q.Encode()
}

// ExchangeCode fabricates tokens derived from the code.
func (s *Stub) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResult, error) {
	if code == "" {
		return nil, fmt.Errorf("empty authorization code")
	}
	return &TokenResult{
		AccessToken:  "stub-access-" + code,
		RefreshToken: "stub-refresh-" + code,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		OpenID:       "open-" + code,
	}, nil
}

// GetUserInfo fabricates a profile from the access token.
func (s *Stub) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing access token")
	}
	// Recover the code suffix from the fabricated access token
	code := accessToken
	if len(accessToken) > len("stub-access-") {
		code = accessToken[len("stub-access-"):]
	}
	return &UserInfo{
		OpenID:      "open-" + code,
		Username:    s.label + "_" + code,
		DisplayName: "Stub " + code,
		AvatarURL:   "https://example.com/avatar/" + code + ".png",
	}, nil
}
