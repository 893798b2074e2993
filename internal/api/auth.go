package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Credentials is the one username/password pair /api/login accepts.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) match(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK && c.Username != ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
}

func handleLogin(creds Credentials) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !creds.match(req.Username, req.Password) {
			slog.Info("login rejected", "username", req.Username)
			writeJSON(w, http.StatusUnauthorized, loginResponse{
				Success: false,
				Message: "Invalid username or password",
			})
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Success:  true,
			Message:  "Login successful",
			Token:    uuid.NewString(),
			Username: req.Username,
		})
	}
}
