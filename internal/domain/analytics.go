package domain

import "time"

// AnalyticsSnapshot is one day of metrics for an account (and optionally a
// single video).
type AnalyticsSnapshot struct {
	ID             string    `json:"id" db:"id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	VideoID        *string   `json:"video_id,omitempty" db:"video_id"`
	Date           time.Time `json:"date" db:"date"`
	Views          int64     `json:"views" db:"views"`
	Likes          int64     `json:"likes" db:"likes"`
	Shares         int64     `json:"shares" db:"shares"`
	Comments       int64     `json:"comments" db:"comments"`
	EngagementRate float64   `json:"engagement_rate" db:"engagement_rate"`
	FollowerCount  int64     `json:"follower_count" db:"follower_count"`
}

// AnalyticsSummary aggregates snapshots over a date range.
type AnalyticsSummary struct {
	TotalViews            int64   `json:"total_views" db:"total_views"`
	TotalLikes            int64   `json:"total_likes" db:"total_likes"`
	TotalShares           int64   `json:"total_shares" db:"total_shares"`
	TotalComments         int64   `json:"total_comments" db:"total_comments"`
	AverageEngagementRate float64 `json:"average_engagement_rate" db:"avg_engagement_rate"`
	FollowerCount         int64   `json:"follower_count" db:"follower_count"`
}

// DailyAnalytics is one aggregated day in an account analytics response.
type DailyAnalytics struct {
	Date           string  `json:"date" db:"date"`
	Views          int64   `json:"views" db:"views"`
	Likes          int64   `json:"likes" db:"likes"`
	Shares         int64   `json:"shares" db:"shares"`
	Comments       int64   `json:"comments" db:"comments"`
	EngagementRate float64 `json:"engagement_rate" db:"engagement_rate"`
	FollowerCount  int64   `json:"follower_count" db:"follower_count"`
}

// AccountAnalyticsResponse is the dashboard analytics view for an account.
type AccountAnalyticsResponse struct {
	AccountID string `json:"account_id"`
	AnalyticsSummary
	DailyAnalytics []*DailyAnalytics `json:"daily_analytics"`
}

// VideoAnalyticsResponse is the analytics view for a single video.
type VideoAnalyticsResponse struct {
	VideoID        string     `json:"video_id"`
	Title          string     `json:"title"`
	TotalViews     int64      `json:"total_views"`
	TotalLikes     int64      `json:"total_likes"`
	TotalShares    int64      `json:"total_shares"`
	TotalComments  int64      `json:"total_comments"`
	EngagementRate float64    `json:"engagement_rate"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// ExternalAnalyticsResponse is the summary-only view served to API key
// callers.
type ExternalAnalyticsResponse struct {
	AccountID string `json:"account_id"`
	AnalyticsSummary
}
