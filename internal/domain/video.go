package domain

import "time"

// Video statuses.
const (
	VideoStatusDraft     = "draft"
	VideoStatusScheduled = "scheduled"
	VideoStatusPublished = "published"
)

// Video is an uploaded or scheduled video tied to a connected account.
// Exactly one of FilePath (blob upload) or URL (external link) is set.
type Video struct {
	ID            string     `json:"id" db:"id"`
	AccountID     string     `json:"account_id" db:"account_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description,omitempty" db:"description"`
	FilePath      string     `json:"file_path,omitempty" db:"file_path"`
	URL           string     `json:"url,omitempty" db:"url"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty" db:"scheduled_time"`
	Status        string     `json:"status" db:"status"`
	TikTokVideoID string     `json:"tiktok_video_id,omitempty" db:"tiktok_video_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// UploadVideoRequest is the request body for uploading a video file.
// FileData is base64-encoded.
type UploadVideoRequest struct {
	AccountID     string     `json:"account_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	FileData      string     `json:"file_data"`
	Filename      string     `json:"filename"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

// UploadVideoURLRequest is the request body for registering a video by URL.
type UploadVideoURLRequest struct {
	AccountID     string     `json:"account_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	URL           string     `json:"url"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

// ListVideosFilter narrows a video listing. Zero values mean no filter.
type ListVideosFilter struct {
	AccountID string
	Status    string
	Limit     int
	Offset    int
}

// ListVideosResponse wraps a page of videos plus the unpaged total.
type ListVideosResponse struct {
	Videos []*Video `json:"videos"`
	Total  int      `json:"total"`
}
