package storage

import (
	"context"
	"time"

	"github.com/clipstack/clipstack/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
//
// Lookups that take a userID are owner-scoped: a row owned by someone else is
// indistinguishable from a missing row (domain.ErrNotFound).
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID string) ([]*domain.APIKey, error)
	// DeleteAPIKey deletes the key only if it belongs to userID. A missing
	// or non-owned id is a silent no-op.
	DeleteAPIKey(ctx context.Context, id, userID string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error

	// TikTok Accounts
	CreateAccount(ctx context.Context, account *domain.TikTokAccount) error
	GetAccount(ctx context.Context, id, userID string) (*domain.TikTokAccount, error)
	GetAccountByTikTokUserID(ctx context.Context, tiktokUserID string) (*domain.TikTokAccount, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]*domain.TikTokAccount, error)
	DeleteAccount(ctx context.Context, id string) error

	// Videos
	CreateVideo(ctx context.Context, video *domain.Video) error
	GetVideo(ctx context.Context, id, userID string) (*domain.Video, error)
	ListVideosByUser(ctx context.Context, userID string, filter domain.ListVideosFilter) ([]*domain.Video, int, error)

	// Analytics
	CreateAnalyticsSnapshot(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error
	GetAccountAnalyticsSummary(ctx context.Context, accountID string, start, end time.Time) (*domain.AnalyticsSummary, error)
	ListDailyAnalytics(ctx context.Context, accountID string, start, end time.Time) ([]*domain.DailyAnalytics, error)
	GetVideoAnalyticsSummary(ctx context.Context, videoID string) (*domain.AnalyticsSummary, error)
}
