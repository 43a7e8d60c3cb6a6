package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/storage"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

const minPasswordLength = 8

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	name := sanitizeText(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := s.authManager.HashPassword(req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), email, name, hash)
	if errors.Is(err, storage.ErrDuplicate) {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, err := s.authManager.IssueToken(user.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.logger.Info("User registered", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserJSON(user)})
}

type profileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"` // empty keeps the current one
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	name := sanitizeText(req.Name)
	if name == "" {
		name = user.Name
	}
	hash := user.PasswordHash
	if req.Password != "" {
		if len(req.Password) < minPasswordLength {
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err = s.authManager.HashPassword(req.Password)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	if err := s.store.UpdateUser(r.Context(), userID, name, hash); err != nil {
		respondServiceError(w, r, err)
		return
	}

	user.Name = name
	respondJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondServiceError(w, r, err)
			return
		}
		// Group ownership and paid shared expenses do not cascade.
		respondError(w, http.StatusConflict, "account still has group activity; settle and leave groups first")
		return
	}

	s.logger.Info("Account deleted", "user_id", userID)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	if err := s.authManager.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondServiceError(w, r, auth.ErrInvalidCredentials)
		return
	}

	token, err := s.authManager.IssueToken(user.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserJSON(user)})
}
