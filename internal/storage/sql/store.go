package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/clipstack/clipstack/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// dateFormat is the canonical format for analytics date columns.
const dateFormat = "2006-01-02"

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ============================================
// Users
// ============================================

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &user, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &user, err
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, permissions, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Permissions, key.CreatedAt, key.LastUsedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.db.GetContext(ctx, &key,
		`SELECT id, user_id, name, key_hash, key_prefix, permissions, created_at, last_used_at
		 FROM api_keys WHERE key_hash = $1`, keyHash)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &key, err
}

func (s *Store) ListAPIKeysByUser(ctx context.Context, userID string) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, user_id, name, key_hash, key_prefix, permissions, created_at, last_used_at
		 FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteAPIKey deletes only a key owned by userID. Zero rows affected is not
// an error: absence and ownership mismatch are both treated as a no-op.
func (s *Store) DeleteAPIKey(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// ============================================
// TikTok Accounts
// ============================================

func (s *Store) CreateAccount(ctx context.Context, account *domain.TikTokAccount) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tiktok_accounts (id, user_id, tiktok_user_id, username, display_name, avatar_url,
		  access_token_sealed, refresh_token_sealed, token_expires_at, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID, account.UserID, account.TikTokUserID, account.Username, account.DisplayName,
		account.AvatarURL, account.AccessTokenSealed, account.RefreshTokenSealed,
		account.TokenExpiresAt, account.Status, account.CreatedAt)
	return wrapUniqueError(err)
}

// GetAccount looks up an account scoped to its owner in a single query, so a
// foreign account is indistinguishable from a missing one.
func (s *Store) GetAccount(ctx context.Context, id, userID string) (*domain.TikTokAccount, error) {
	var account domain.TikTokAccount
	err := s.db.GetContext(ctx, &account,
		`SELECT id, user_id, tiktok_user_id, username, display_name, avatar_url,
		  access_token_sealed, refresh_token_sealed, token_expires_at, status, created_at
		 FROM tiktok_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &account, err
}

func (s *Store) GetAccountByTikTokUserID(ctx context.Context, tiktokUserID string) (*domain.TikTokAccount, error) {
	var account domain.TikTokAccount
	err := s.db.GetContext(ctx, &account,
		`SELECT id, user_id, tiktok_user_id, username, display_name, avatar_url,
		  access_token_sealed, refresh_token_sealed, token_expires_at, status, created_at
		 FROM tiktok_accounts WHERE tiktok_user_id = $1`, tiktokUserID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &account, err
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string) ([]*domain.TikTokAccount, error) {
	var accounts []*domain.TikTokAccount
	err := s.db.SelectContext(ctx, &accounts,
		`SELECT id, user_id, tiktok_user_id, username, display_name, avatar_url,
		  access_token_sealed, refresh_token_sealed, token_expires_at, status, created_at
		 FROM tiktok_accounts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tiktok_accounts WHERE id = $1`, id)
	return err
}

// ============================================
// Videos
// ============================================

func (s *Store) CreateVideo(ctx context.Context, video *domain.Video) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, account_id, title, description, file_path, url,
		  scheduled_time, status, tiktok_video_id, created_at, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		video.ID, video.AccountID, video.Title, video.Description, video.FilePath, video.URL,
		video.ScheduledTime, video.Status, video.TikTokVideoID, video.CreatedAt, video.PublishedAt)
	return err
}

// GetVideo resolves ownership through the account join.
func (s *Store) GetVideo(ctx context.Context, id, userID string) (*domain.Video, error) {
	var video domain.Video
	err := s.db.GetContext(ctx, &video,
		`SELECT v.id, v.account_id, v.title, v.description, v.file_path, v.url,
		  v.scheduled_time, v.status, v.tiktok_video_id, v.created_at, v.published_at
		 FROM videos v
		 JOIN tiktok_accounts ta ON v.account_id = ta.id
		 WHERE v.id = $1 AND ta.user_id = $2`, id, userID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &video, err
}

func (s *Store) ListVideosByUser(ctx context.Context, userID string, filter domain.ListVideosFilter) ([]*domain.Video, int, error) {
	where := []string{"ta.user_id = $1"}
	args := []any{userID}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		where = append(where, fmt.Sprintf("v.account_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("v.status = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM videos v JOIN tiktok_accounts ta ON v.account_id = ta.id WHERE %s`,
		whereClause)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(
		`SELECT v.id, v.account_id, v.title, v.description, v.file_path, v.url,
		  v.scheduled_time, v.status, v.tiktok_video_id, v.created_at, v.published_at
		 FROM videos v
		 JOIN tiktok_accounts ta ON v.account_id = ta.id
		 WHERE %s
		 ORDER BY v.created_at DESC
		 LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args))

	var videos []*domain.Video
	if err := s.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// ============================================
// Analytics
// ============================================

func (s *Store) CreateAnalyticsSnapshot(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics (id, account_id, video_id, date, views, likes, shares, comments, engagement_rate, follower_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		snapshot.ID, snapshot.AccountID, snapshot.VideoID, snapshot.Date.Format(dateFormat),
		snapshot.Views, snapshot.Likes, snapshot.Shares, snapshot.Comments,
		snapshot.EngagementRate, snapshot.FollowerCount)
	return err
}

func (s *Store) GetAccountAnalyticsSummary(ctx context.Context, accountID string, start, end time.Time) (*domain.AnalyticsSummary, error) {
	var summary domain.AnalyticsSummary
	err := s.db.GetContext(ctx, &summary,
		`SELECT
		  COALESCE(SUM(views), 0) AS total_views,
		  COALESCE(SUM(likes), 0) AS total_likes,
		  COALESCE(SUM(shares), 0) AS total_shares,
		  COALESCE(SUM(comments), 0) AS total_comments,
		  COALESCE(AVG(engagement_rate), 0) AS avg_engagement_rate,
		  COALESCE(MAX(follower_count), 0) AS follower_count
		 FROM analytics
		 WHERE account_id = $1 AND date >= $2 AND date <= $3`,
		accountID, start.Format(dateFormat), end.Format(dateFormat))
	return &summary, err
}

func (s *Store) ListDailyAnalytics(ctx context.Context, accountID string, start, end time.Time) ([]*domain.DailyAnalytics, error) {
	var daily []*domain.DailyAnalytics
	err := s.db.SelectContext(ctx, &daily,
		`SELECT
		  CAST(date AS TEXT) AS date,
		  COALESCE(SUM(views), 0) AS views,
		  COALESCE(SUM(likes), 0) AS likes,
		  COALESCE(SUM(shares), 0) AS shares,
		  COALESCE(SUM(comments), 0) AS comments,
		  COALESCE(AVG(engagement_rate), 0) AS engagement_rate,
		  COALESCE(MAX(follower_count), 0) AS follower_count
		 FROM analytics
		 WHERE account_id = $1 AND date >= $2 AND date <= $3
		 GROUP BY date
		 ORDER BY date DESC`,
		accountID, start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, err
	}
	return daily, nil
}

func (s *Store) GetVideoAnalyticsSummary(ctx context.Context, videoID string) (*domain.AnalyticsSummary, error) {
	var summary domain.AnalyticsSummary
	err := s.db.GetContext(ctx, &summary,
		`SELECT
		  COALESCE(SUM(views), 0) AS total_views,
		  COALESCE(SUM(likes), 0) AS total_likes,
		  COALESCE(SUM(shares), 0) AS total_shares,
		  COALESCE(SUM(comments), 0) AS total_comments,
		  COALESCE(AVG(engagement_rate), 0) AS avg_engagement_rate,
		  COALESCE(MAX(follower_count), 0) AS follower_count
		 FROM analytics
		 WHERE video_id = $1`, videoID)
	return &summary, err
}
