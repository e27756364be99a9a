package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/neetprep/backend/internal/domain/profile"
)

// ── Request / Response types ────────────────────────────────────────────────

type RegisterRequest struct {
	Name       string `json:"name" example:"Asha"`
	Email      string `json:"email" example:"asha@example.com"`
	Password   string `json:"password" example:"secret123"`
	TargetYear int    `json:"target_year" example:"2027"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if len(r.Password) < profile.MinPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" example:"asha@example.com"`
	Password string `json:"password" example:"secret123"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type ProfileResponse struct {
	ID           string    `json:"id" example:"7f1c..."`
	Name         string    `json:"name" example:"Asha"`
	Email        string    `json:"email" example:"asha@example.com"`
	TargetYear   int       `json:"target_year" example:"2027"`
	Premium      bool      `json:"premium"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   ProfileResponse `json:"profile"`
}

func toProfileResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		TargetYear:   p.TargetYear,
		Premium:      p.Premium,
		Admin:        p.Admin,
		CreatedAt:    p.CreatedAt,
		LastActiveAt: p.LastActiveAt,
	}
}

func setSessionCookie(w http.ResponseWriter, s *profile.AuthSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ── Handlers ────────────────────────────────────────────────────────────────

// register creates an account and logs it in.
// @Summary      Register
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "New account"
// @Success      201   {object}  AuthResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse  "email already registered"
// @Router       /auth/register [post]
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, sess, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password, req.TargetYear)
	if h.handleError(w, err, "profile") {
		return
	}

	setSessionCookie(w, sess)
	respondJSON(w, http.StatusCreated, AuthResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Profile:   toProfileResponse(p),
	})
}

// login opens a session.
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  AuthResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, sess, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if h.handleError(w, err, "profile") {
		return
	}

	setSessionCookie(w, sess)
	respondJSON(w, http.StatusOK, AuthResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Profile:   toProfileResponse(p),
	})
}

// logout ends the current session.
// @Summary      Log out
// @Tags         Auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if h.handleError(w, h.accounts.Logout(r.Context(), sessionToken(r)), "session") {
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// me returns the logged-in profile.
// @Summary      Current profile
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /me [get]
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toProfileResponse(currentUser(r)))
}
