package handler

import (
	"net/http"

	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/blob"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ExternalHandler serves the API-key-authenticated external endpoints. The
// credential is resolved by the APIKeyAuth middleware; permission checks run
// in RequirePermission; ownership checks happen here against the key's owner.
type ExternalHandler struct {
	store storage.Storage
	blobs blob.Store
}

// NewExternalHandler creates a new ExternalHandler.
func NewExternalHandler(store storage.Storage, blobs blob.Store) *ExternalHandler {
	return &ExternalHandler{store: store, blobs: blobs}
}

// UploadVideo uploads a video on behalf of an API key with write permission.
func (h *ExternalHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKeyFromContext(r.Context())

	var req domain.UploadVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := uploadVideo(r.Context(), h.store, h.blobs, key.UserID, &req)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, video)
}

// Analytics returns summary analytics for an account the key's owner owns.
func (h *ExternalHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKeyFromContext(r.Context())

	accountID := chi.URLParam(r, "account_id")
	start, end, ok := analyticsRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "dates must be formatted YYYY-MM-DD")
		return
	}

	summary, err := accountSummary(r.Context(), h.store, accountID, key.UserID, start, end)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.ExternalAnalyticsResponse{
		AccountID:        accountID,
		AnalyticsSummary: *summary,
	})
}
