package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/go-chi/chi/v5"
)

// defaultAnalyticsWindow is used when no date range is given.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// AnalyticsHandler handles dashboard analytics endpoints.
type AnalyticsHandler struct {
	store storage.Storage
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(store storage.Storage) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

// analyticsRange parses start/end query parameters, defaulting to the last
// 30 days.
func analyticsRange(r *http.Request) (time.Time, time.Time, bool) {
	end := time.Now()
	start := end.Add(-defaultAnalyticsWindow)

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, false
		}
		start = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, false
		}
		end = t
	}
	return start, end, true
}

// accountSummary loads the aggregated analytics for an owner-scoped account.
func accountSummary(ctx context.Context, store storage.Storage, accountID, userID string, start, end time.Time) (*domain.AnalyticsSummary, error) {
	// Ownership check first: foreign accounts surface as not found
	account, err := store.GetAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	return store.GetAccountAnalyticsSummary(ctx, account.ID, start, end)
}

// Account returns summary and per-day analytics for an account.
func (h *AnalyticsHandler) Account(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	accountID := chi.URLParam(r, "account_id")
	start, end, ok := analyticsRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "dates must be formatted YYYY-MM-DD")
		return
	}

	summary, err := accountSummary(r.Context(), h.store, accountID, session.UserID, start, end)
	if err != nil {
		handleError(w, err)
		return
	}

	daily, err := h.store.ListDailyAnalytics(r.Context(), accountID, start, end)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.AccountAnalyticsResponse{
		AccountID:        accountID,
		AnalyticsSummary: *summary,
		DailyAnalytics:   daily,
	})
}

// Video returns aggregated analytics for a single video.
func (h *AnalyticsHandler) Video(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	videoID := chi.URLParam(r, "video_id")

	// Ownership resolves through the account join
	video, err := h.store.GetVideo(r.Context(), videoID, session.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	summary, err := h.store.GetVideoAnalyticsSummary(r.Context(), video.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.VideoAnalyticsResponse{
		VideoID:        video.ID,
		Title:          video.Title,
		TotalViews:     summary.TotalViews,
		TotalLikes:     summary.TotalLikes,
		TotalShares:    summary.TotalShares,
		TotalComments:  summary.TotalComments,
		EngagementRate: summary.AverageEngagementRate,
		PublishedAt:    video.PublishedAt,
	})
}
