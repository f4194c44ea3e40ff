package httpapi

import (
	"net/http"

	"spinchart/shared/go/models"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID, err := s.users.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SignupResponse{Success: true, UserID: userID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Success: true, Token: token})
}
