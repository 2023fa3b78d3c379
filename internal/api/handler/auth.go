package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/clipstack/clipstack/internal/validation"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	store  storage.Storage
	tokens *auth.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store storage.Storage, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

// Register creates a new user account and returns a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if verr := validation.ValidateEmail(req.Email); verr != nil {
		respondValidationError(w, verr)
		return
	}
	if verr := validation.ValidatePassword(req.Password); verr != nil {
		respondValidationError(w, verr)
		return
	}

	email := strings.ToLower(req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &domain.User{
		ID:           generateID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			respondError(w, http.StatusConflict, "user with this email already exists")
			return
		}
		handleError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

// Login authenticates a user with email and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		// Same message for unknown email and bad password
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *domain.User) {
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, status, &domain.AuthResponse{
		Token: token,
		User: domain.UserInfo{
			ID:    user.ID,
			Email: user.Email,
		},
	})
}
