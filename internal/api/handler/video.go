package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/blob"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/clipstack/clipstack/internal/validation"
)

// VideoHandler handles the dashboard video endpoints.
type VideoHandler struct {
	store storage.Storage
	blobs blob.Store
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(store storage.Storage, blobs blob.Store) *VideoHandler {
	return &VideoHandler{store: store, blobs: blobs}
}

// Upload stores a base64-encoded video file for one of the user's accounts.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req domain.UploadVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := uploadVideo(r.Context(), h.store, h.blobs, session.UserID, &req)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, video)
}

// UploadURL registers a video by external URL instead of a file.
func (h *VideoHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req domain.UploadVideoURLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AccountID == "" || req.Title == "" {
		respondError(w, http.StatusBadRequest, "account_id and title are required")
		return
	}

	if verr := validation.ValidateURL(req.URL); verr != nil {
		respondValidationError(w, verr)
		return
	}

	// Ownership check: foreign accounts look like missing ones
	account, err := h.store.GetAccount(r.Context(), req.AccountID, session.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	video := &domain.Video{
		ID:            generateID(),
		AccountID:     account.ID,
		Title:         req.Title,
		Description:   req.Description,
		URL:           req.URL,
		ScheduledTime: req.ScheduledTime,
		Status:        videoStatus(req.ScheduledTime),
		CreatedAt:     time.Now(),
	}

	if err := h.store.CreateVideo(r.Context(), video); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, video)
}

// List lists the user's videos with optional filters and pagination.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	filter := domain.ListVideosFilter{
		AccountID: r.URL.Query().Get("account_id"),
		Status:    r.URL.Query().Get("status"),
		Limit:     parseInt(r.URL.Query().Get("limit"), 20),
		Offset:    parseInt(r.URL.Query().Get("offset"), 0),
	}

	videos, total, err := h.store.ListVideosByUser(r.Context(), session.UserID, filter)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.ListVideosResponse{Videos: videos, Total: total})
}

// uploadError carries the HTTP mapping for a failed upload step.
type uploadError struct {
	status  int
	message string
	cause   error
}

func (e *uploadError) Error() string { return e.message }

// writeUploadError maps an upload failure to a response.
func writeUploadError(w http.ResponseWriter, err error) {
	if ue, ok := err.(*uploadError); ok {
		respondError(w, ue.status, ue.message)
		return
	}
	handleError(w, err)
}

// uploadVideo runs the shared upload pipeline: ownership check, file type
// check, blob write, row insert. Used by both the dashboard and the external
// API.
func uploadVideo(ctx context.Context, store storage.Storage, blobs blob.Store, userID string, req *domain.UploadVideoRequest) (*domain.Video, error) {
	if req.AccountID == "" || req.Title == "" || req.Filename == "" {
		return nil, &uploadError{status: http.StatusBadRequest, message: "account_id, title and filename are required"}
	}

	// Ownership check: foreign accounts look like missing ones
	account, err := store.GetAccount(ctx, req.AccountID, userID)
	if err != nil {
		return nil, err
	}

	ext, verr := validation.VideoExtension(req.Filename)
	if verr != nil {
		return nil, &uploadError{status: http.StatusBadRequest, message: verr.Message}
	}

	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, message: "file_data is not valid base64"}
	}

	filePath := fmt.Sprintf("%s/%s%s", account.ID, generateID(), ext)
	contentType := "video/" + ext[1:]

	if err := blobs.Put(ctx, filePath, data, contentType); err != nil {
		return nil, &uploadError{status: http.StatusInternalServerError, message: "failed to store video file", cause: err}
	}

	video := &domain.Video{
		ID:            generateID(),
		AccountID:     account.ID,
		Title:         req.Title,
		Description:   req.Description,
		FilePath:      filePath,
		ScheduledTime: req.ScheduledTime,
		Status:        videoStatus(req.ScheduledTime),
		CreatedAt:     time.Now(),
	}

	if err := store.CreateVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// videoStatus derives the initial status from the scheduling request.
func videoStatus(scheduled *time.Time) string {
	if scheduled != nil {
		return domain.VideoStatusScheduled
	}
	return domain.VideoStatusDraft
}

// parseInt parses a string to int with a default value.
func parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
