// internal/handlers/auth.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

const resetTokenTTL = time.Hour

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Signup creates an account and sends the verification email.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	verifyToken, err := randomToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}
	if err := database.CreateUser(r.Context(), &user, verifyToken); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		s.Logger.Errorf("create user: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	if err := s.Mail.SendVerification(user.Email, verifyToken); err != nil {
		s.Logger.Warnf("send verification to %s: %v", user.Email, err)
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user,omitempty"`
}

// Login checks credentials and mints a session plus refresh token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	user, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := s.Sessions.MintSession(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	refresh, err := s.Sessions.MintRefresh(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, RefreshToken: refresh, User: user})
}

// Verify confirms an email address from the mailed link.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_token")
		return
	}
	if err := database.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a valid refresh token for a fresh session pair.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	userID, err := s.Sessions.VerifyRefresh(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if _, err := database.GetUserByID(r.Context(), userID); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	token, err := s.Sessions.MintSession(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	refresh, err := s.Sessions.MintRefresh(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, RefreshToken: refresh})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset stores a reset token and mails the link. The
// response is the same whether or not the address exists.
func (s *Server) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	token, err := randomToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if err := database.SetResetToken(r.Context(), req.Email, token, time.Now().Add(resetTokenTTL)); err == nil {
		if mailErr := s.Mail.SendPasswordReset(req.Email, token); mailErr != nil {
			s.Logger.Warnf("send reset to %s: %v", req.Email, mailErr)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ConfirmPasswordReset sets a new password from a valid reset token.
func (s *Server) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if err := database.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
