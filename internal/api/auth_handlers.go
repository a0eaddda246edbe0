package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/luxejewel-storefront/internal/api/middleware"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	log "github.com/sirupsen/logrus"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token the storefront stores for later requests.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        user.User `json:"user"`
}

// Register handles user registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newUser, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.issueToken(w, newUser)
}

// Login handles user login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithField("remote_addr", r.RemoteAddr).Debug("Login rejected")
		h.respondError(w, err)
		return
	}

	h.issueToken(w, u)
}

// Me returns the profile of the token holder.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.User(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handlers) issueToken(w http.ResponseWriter, u user.User) {
	token, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		h.log.WithError(err).Error("Failed to generate access token")
		respondJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(log.Fields{"user_id": u.ID, "expires_at": expiresAt}).Info("Access token issued")
	respondJSON(w, http.StatusOK, AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        u,
	})
}
