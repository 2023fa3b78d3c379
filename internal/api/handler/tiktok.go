package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/clipstack/clipstack/internal/tiktok"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// TikTokHandler handles account connection endpoints.
type TikTokHandler struct {
	store  storage.Storage
	client tiktok.Client
	cipher *auth.TokenCipher
	states *auth.StateStore
	logger *logrus.Logger
}

// NewTikTokHandler creates a new TikTokHandler.
func NewTikTokHandler(store storage.Storage, client tiktok.Client, cipher *auth.TokenCipher, states *auth.StateStore, logger *logrus.Logger) *TikTokHandler {
	return &TikTokHandler{
		store:  store,
		client: client,
		cipher: cipher,
		states: states,
		logger: logger,
	}
}

// AuthURL builds the TikTok authorization URL with CSRF state.
func (h *TikTokHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	var req domain.AuthURLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RedirectURI == "" {
		respondError(w, http.StatusBadRequest, "redirect_uri is required")
		return
	}

	state, err := h.states.Generate(w)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate state")
		return
	}

	respondJSON(w, http.StatusOK, &domain.AuthURLResponse{
		AuthURL: h.client.AuthorizeURL(req.RedirectURI, state.State),
	})
}

// Connect exchanges an authorization code and stores the connected account.
// OAuth tokens are sealed before they touch the database.
func (h *TikTokHandler) Connect(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req domain.ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" || req.RedirectURI == "" {
		respondError(w, http.StatusBadRequest, "code and redirect_uri are required")
		return
	}

	if _, err := h.states.Validate(r, req.State); err != nil {
		respondError(w, http.StatusBadRequest, "invalid state")
		return
	}
	h.states.Clear(w)

	tokens, err := h.client.ExchangeCode(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		h.logger.WithError(err).Warn("TikTok code exchange failed")
		respondError(w, http.StatusBadRequest, "failed to exchange code for token")
		return
	}

	info, err := h.client.GetUserInfo(r.Context(), tokens.AccessToken)
	if err != nil {
		h.logger.WithError(err).Warn("TikTok user info fetch failed")
		respondError(w, http.StatusBadRequest, "failed to get user info")
		return
	}

	if _, err := h.store.GetAccountByTikTokUserID(r.Context(), info.OpenID); err == nil {
		respondError(w, http.StatusConflict, "TikTok account already connected")
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		handleError(w, err)
		return
	}

	accessSealed, err := h.cipher.Seal(tokens.AccessToken)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to seal tokens")
		return
	}
	refreshSealed, err := h.cipher.Seal(tokens.RefreshToken)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to seal tokens")
		return
	}

	account := &domain.TikTokAccount{
		ID:                 generateID(),
		UserID:             session.UserID,
		TikTokUserID:       info.OpenID,
		Username:           info.Username,
		DisplayName:        info.DisplayName,
		AvatarURL:          info.AvatarURL,
		AccessTokenSealed:  accessSealed,
		RefreshTokenSealed: refreshSealed,
		TokenExpiresAt:     tokens.ExpiresAt,
		Status:             domain.AccountStatusActive,
		CreatedAt:          time.Now(),
	}

	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

// ListAccounts lists the user's connected accounts.
func (h *TikTokHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	accounts, err := h.store.ListAccountsByUser(r.Context(), session.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.ListAccountsResponse{Accounts: accounts})
}

// Disconnect removes a connected account. Accounts owned by other users look
// like missing ones.
func (h *TikTokHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	account, err := h.store.GetAccount(r.Context(), id, session.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.store.DeleteAccount(r.Context(), account.ID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Webhook acknowledges TikTok webhook events. Events are logged and dropped.
type webhookEvent struct {
	EventType string         `json:"event_type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Webhook handles POST /webhooks/tiktok.
func (h *TikTokHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var event webhookEvent
	if err := decodeJSON(r, &event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"timestamp":  event.Timestamp,
	}).Info("TikTok webhook received")

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
