package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/sirupsen/logrus"
)

// OIDCHandler implements optional SSO login. On a successful callback the
// user is found or created by verified email and receives the same session
// token as a password login.
type OIDCHandler struct {
	store       storage.Storage
	provider    *auth.OIDCProvider
	states      *auth.StateStore
	tokens      *auth.TokenIssuer
	frontendURL string
	logger      *logrus.Logger
}

// NewOIDCHandler creates a new OIDCHandler.
func NewOIDCHandler(store storage.Storage, provider *auth.OIDCProvider, states *auth.StateStore, tokens *auth.TokenIssuer, frontendURL string, logger *logrus.Logger) *OIDCHandler {
	return &OIDCHandler{
		store:       store,
		provider:    provider,
		states:      states,
		tokens:      tokens,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Login redirects to the identity provider.
func (h *OIDCHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Generate(w)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate state")
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(state.State, state.Nonce), http.StatusFound)
}

// Callback completes the SSO flow and hands a session token to the frontend.
func (h *OIDCHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, "authorization failed: "+errMsg)
		return
	}

	stateData, err := h.states.Validate(r, r.URL.Query().Get("state"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid state")
		return
	}
	h.states.Clear(w)

	result, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"), stateData.Nonce)
	if err != nil {
		h.logger.WithError(err).Warn("OIDC code exchange failed")
		respondError(w, http.StatusBadRequest, "failed to exchange code")
		return
	}

	if err := h.provider.ValidateClaims(result.Claims); err != nil {
		respondError(w, http.StatusForbidden, err.Error())
		return
	}

	email := strings.ToLower(result.Claims.Email)

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if errors.Is(err, domain.ErrNotFound) {
		// First SSO login: provision a user without a password
		user = &domain.User{
			ID:        generateID(),
			Email:     email,
			CreatedAt: time.Now(),
		}
		if err := h.store.CreateUser(r.Context(), user); err != nil {
			handleError(w, err)
			return
		}
	} else if err != nil {
		handleError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	redirect := h.frontendURL
	if strings.Contains(redirect, "?") {
		redirect += "&token=" + url.QueryEscape(token)
	} else {
		redirect += "?token=" + url.QueryEscape(token)
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}
