package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/platform/user"
)

// UserService defines the user operations needed by AuthHandler
type UserService interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
}

// TokenIssuer defines the interface for JWT generation
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userService UserService
	tokens      TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
	}
}

// AuthRequest represents the registration and login request body
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo represents user information (without sensitive data)
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register handles user registration (POST /auth/register)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAuthRequest(w, r)
	if !ok {
		return
	}

	registered, err := h.userService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserAlreadyExists):
			respondError(w, "user with this email already exists", http.StatusConflict)
		case errors.Is(err, user.ErrPasswordTooShort):
			respondError(w, "password must be at least 8 characters", http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidEmail):
			respondError(w, "invalid email address", http.StatusBadRequest)
		default:
			respondError(w, "failed to register user", http.StatusInternalServerError)
		}
		return
	}

	h.respondWithToken(w, registered, http.StatusCreated)
}

// Login handles user login (POST /auth/login)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAuthRequest(w, r)
	if !ok {
		return
	}

	authenticated, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password get the same answer
		if errors.Is(err, user.ErrInvalidPassword) || errors.Is(err, user.ErrUserNotFound) {
			respondError(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		respondError(w, "failed to login", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, authenticated, http.StatusOK)
}

func decodeAuthRequest(w http.ResponseWriter, r *http.Request) (AuthRequest, bool) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}

	if req.Email == "" {
		respondError(w, "email is required", http.StatusBadRequest)
		return req, false
	}

	if req.Password == "" {
		respondError(w, "password is required", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, u *user.User, status int) {
	token, err := h.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, AuthResponse{
		Token: token,
		User: &UserInfo{
			ID:    u.ID.String(),
			Email: u.Email,
		},
	}, status)
}
