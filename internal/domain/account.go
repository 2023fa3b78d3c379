package domain

import "time"

// Account statuses.
const (
	AccountStatusActive = "active"
)

// TikTokAccount is a TikTok account connected by a user. OAuth tokens are
// stored AES-GCM sealed and never leave the server.
type TikTokAccount struct {
	ID                 string    `json:"account_id" db:"id"`
	UserID             string    `json:"-" db:"user_id"`
	TikTokUserID       string    `json:"tiktok_user_id" db:"tiktok_user_id"`
	Username           string    `json:"username" db:"username"`
	DisplayName        string    `json:"display_name" db:"display_name"`
	AvatarURL          string    `json:"avatar_url" db:"avatar_url"`
	AccessTokenSealed  string    `json:"-" db:"access_token_sealed"`
	RefreshTokenSealed string    `json:"-" db:"refresh_token_sealed"`
	TokenExpiresAt     time.Time `json:"-" db:"token_expires_at"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// AuthURLRequest is the request body for building a TikTok authorize URL.
type AuthURLRequest struct {
	RedirectURI string `json:"redirect_uri"`
}

// AuthURLResponse carries the TikTok authorize URL.
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

// ConnectRequest is the request body for connecting a TikTok account.
type ConnectRequest struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	RedirectURI string `json:"redirect_uri"`
}

// ListAccountsResponse wraps the connected account list.
type ListAccountsResponse struct {
	Accounts []*TikTokAccount `json:"accounts"`
}
