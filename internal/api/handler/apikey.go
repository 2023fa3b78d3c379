package handler

import (
	"net/http"
	"time"

	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/go-chi/chi/v5"
)

// defaultPermissions are granted when a create request names none.
var defaultPermissions = domain.Permissions{domain.PermissionRead, domain.PermissionWrite}

// APIKeyHandler handles the settings API key endpoints.
type APIKeyHandler struct {
	store  storage.Storage
	hasher *auth.Hasher
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(store storage.Storage, hasher *auth.Hasher) *APIKeyHandler {
	return &APIKeyHandler{store: store, hasher: hasher}
}

// Create creates a new API key for the authenticated user.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req domain.CreateAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	permissions := domain.Permissions(req.Permissions)
	if len(permissions) == 0 {
		permissions = defaultPermissions
	}

	key, hash, prefix, err := h.hasher.GenerateAPIKey()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	apiKey := &domain.APIKey{
		ID:          generateID(),
		UserID:      session.UserID,
		Name:        req.Name,
		KeyHash:     hash,
		KeyPrefix:   prefix,
		Permissions: permissions,
		CreatedAt:   time.Now(),
	}

	if err := h.store.CreateAPIKey(r.Context(), apiKey); err != nil {
		handleError(w, err)
		return
	}

	resp := &domain.CreateAPIKeyResponse{
		ID:          apiKey.ID,
		Name:        apiKey.Name,
		Key:         key, // Only returned on creation
		KeyPrefix:   apiKey.KeyPrefix,
		Permissions: apiKey.Permissions,
		CreatedAt:   apiKey.CreatedAt,
	}

	respondJSON(w, http.StatusCreated, resp)
}

// List lists the user's API keys (without the actual key values).
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	keys, err := h.store.ListAPIKeysByUser(r.Context(), session.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.ListAPIKeysResponse{APIKeys: keys})
}

// Delete deletes an API key. Deleting a missing or non-owned key is a silent
// no-op.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeleteAPIKey(r.Context(), id, session.UserID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
