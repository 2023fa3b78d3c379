package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clipstack/clipstack/internal/domain"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	users     map[string]*domain.User          // key: id
	apiKeys   map[string]*domain.APIKey        // key: id
	accounts  map[string]*domain.TikTokAccount // key: id
	videos    map[string]*domain.Video         // key: id
	analytics map[string]*domain.AnalyticsSnapshot
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		apiKeys:   make(map[string]*domain.APIKey),
		accounts:  make(map[string]*domain.TikTokAccount),
		videos:    make(map[string]*domain.Video),
		analytics: make(map[string]*domain.AnalyticsSnapshot),
	}
}

func (s *Store) Close() error { return nil }

// ============================================
// Users
// ============================================

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// ============================================
// API Keys
// ============================================

// cloneAPIKey returns a detached copy. API key records are cloned on both
// write and read because UpdateAPIKeyLastUsed mutates the stored record in
// place; handing out the stored pointer would let callers race with it.
func cloneAPIKey(k *domain.APIKey) *domain.APIKey {
	c := *k
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		c.LastUsedAt = &t
	}
	c.Permissions = append(domain.Permissions(nil), k.Permissions...)
	return &c
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.apiKeys {
		if k.KeyHash == key.KeyHash {
			return domain.ErrAlreadyExists
		}
	}
	s.apiKeys[key.ID] = cloneAPIKey(key)
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.apiKeys {
		if k.KeyHash == keyHash {
			return cloneAPIKey(k), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeysByUser(ctx context.Context, userID string) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := []*domain.APIKey{}
	for _, k := range s.apiKeys {
		if k.UserID == userID {
			keys = append(keys, cloneAPIKey(k))
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Missing or non-owned keys are a silent no-op
	if k, ok := s.apiKeys[id]; ok && k.UserID == userID {
		delete(s.apiKeys, id)
	}
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.apiKeys[id]; ok {
		now := time.Now()
		k.LastUsedAt = &now
	}
	return nil
}

// ============================================
// TikTok Accounts
// ============================================

func (s *Store) CreateAccount(ctx context.Context, account *domain.TikTokAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.TikTokUserID == account.TikTokUserID {
			return domain.ErrAlreadyExists
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id, userID string) (*domain.TikTokAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAccountByTikTokUserID(ctx context.Context, tiktokUserID string) (*domain.TikTokAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.TikTokUserID == tiktokUserID {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string) ([]*domain.TikTokAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := []*domain.TikTokAccount{}
	for _, a := range s.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, id)
	for vid, v := range s.videos {
		if v.AccountID == id {
			delete(s.videos, vid)
		}
	}
	return nil
}

// ============================================
// Videos
// ============================================

func (s *Store) CreateVideo(ctx context.Context, video *domain.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.videos[video.ID] = video
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id, userID string) (*domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a, ok := s.accounts[v.AccountID]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (s *Store) ListVideosByUser(ctx context.Context, userID string, filter domain.ListVideosFilter) ([]*domain.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*domain.Video{}
	for _, v := range s.videos {
		a, ok := s.accounts[v.AccountID]
		if !ok || a.UserID != userID {
			continue
		}
		if filter.AccountID != "" && v.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*domain.Video{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// ============================================
// Analytics
// ============================================

func (s *Store) CreateAnalyticsSnapshot(ctx context.Context, snapshot *domain.AnalyticsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analytics[snapshot.ID] = snapshot
	return nil
}

func (s *Store) GetAccountAnalyticsSummary(ctx context.Context, accountID string, start, end time.Time) (*domain.AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &domain.AnalyticsSummary{}
	var rateSum float64
	var n int
	for _, snap := range s.analytics {
		if snap.AccountID != accountID || !inRange(snap.Date, start, end) {
			continue
		}
		summary.TotalViews += snap.Views
		summary.TotalLikes += snap.Likes
		summary.TotalShares += snap.Shares
		summary.TotalComments += snap.Comments
		rateSum += snap.EngagementRate
		if snap.FollowerCount > summary.FollowerCount {
			summary.FollowerCount = snap.FollowerCount
		}
		n++
	}
	if n > 0 {
		summary.AverageEngagementRate = rateSum / float64(n)
	}
	return summary, nil
}

func (s *Store) ListDailyAnalytics(ctx context.Context, accountID string, start, end time.Time) ([]*domain.DailyAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := map[string]*domain.DailyAnalytics{}
	counts := map[string]int{}
	rateSums := map[string]float64{}
	for _, snap := range s.analytics {
		if snap.AccountID != accountID || !inRange(snap.Date, start, end) {
			continue
		}
		day := snap.Date.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &domain.DailyAnalytics{Date: day}
			byDay[day] = d
		}
		d.Views += snap.Views
		d.Likes += snap.Likes
		d.Shares += snap.Shares
		d.Comments += snap.Comments
		rateSums[day] += snap.EngagementRate
		counts[day]++
		if snap.FollowerCount > d.FollowerCount {
			d.FollowerCount = snap.FollowerCount
		}
	}

	daily := []*domain.DailyAnalytics{}
	for day, d := range byDay {
		d.EngagementRate = rateSums[day] / float64(counts[day])
		daily = append(daily, d)
	}
	sort.Slice(daily, func(i, j int) bool {
		return strings.Compare(daily[i].Date, daily[j].Date) > 0
	})
	return daily, nil
}

func (s *Store) GetVideoAnalyticsSummary(ctx context.Context, videoID string) (*domain.AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &domain.AnalyticsSummary{}
	var rateSum float64
	var n int
	for _, snap := range s.analytics {
		if snap.VideoID == nil || *snap.VideoID != videoID {
			continue
		}
		summary.TotalViews += snap.Views
		summary.TotalLikes += snap.Likes
		summary.TotalShares += snap.Shares
		summary.TotalComments += snap.Comments
		rateSum += snap.EngagementRate
		if snap.FollowerCount > summary.FollowerCount {
			summary.FollowerCount = snap.FollowerCount
		}
		n++
	}
	if n > 0 {
		summary.AverageEngagementRate = rateSum / float64(n)
	}
	return summary, nil
}

// inRange reports whether d falls between start and end inclusive,
// compared at day precision.
func inRange(d, start, end time.Time) bool {
	day := d.Format("2006-01-02")
	return day >= start.Format("2006-01-02") && day <= end.Format("2006-01-02")
}
