package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"sentinel/internal/auth"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/utils"
)

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned to the client after a successful login. The
// session is also persisted server-side so a restart can restore routing.
type LoginResponse struct {
	Message        string              `json:"message"`
	Token          auth.TokenSet       `json:"token"`
	UserAttributes auth.UserAttributes `json:"userAttributes"`
}

type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type CheckEmailRequest struct {
	Email string `json:"email"`
}

// HandleLogin relays credentials to the identity service and persists the
// returned session. A failed login changes nothing server-side: the user
// retries with their input intact.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding request: %v", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			s.respondError(w, utils.NewAppError(utils.ErrInvalidInput, "Email and password are required", nil))
			return
		}

		resp, err := s.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Printf("Login failed for %s: %v", req.Email, err)
			s.respondError(w, err)
			return
		}

		session := &models.Session{
			UserID:       resp.UserAttributes.Sub,
			Email:        resp.UserAttributes.Email,
			Name:         resp.UserAttributes.Name,
			Nickname:     resp.UserAttributes.Nickname,
			Role:         resp.UserAttributes.Role,
			AccessToken:  resp.Token.AccessToken,
			RefreshToken: resp.Token.RefreshToken,
			IDToken:      resp.Token.IDToken,
		}
		// Without an ExpiresIn the session's ExpiresAt stays zero and the
		// stores keep it without a TTL.
		if resp.Token.ExpiresIn > 0 {
			session.ExpiresAt = time.Now().Add(time.Duration(resp.Token.ExpiresIn) * time.Second)
		}
		if err := s.Sessions.Save(r.Context(), session); err != nil {
			// The login itself succeeded; a session-store failure is logged
			// but does not block the user.
			log.Printf("Failed to persist session for user %s: %v", session.UserID, err)
		}

		s.respondJSON(w, http.StatusOK, &LoginResponse{
			Message:        "Login successful",
			Token:          resp.Token,
			UserAttributes: resp.UserAttributes,
		})
	}
}

// HandleRegister relays a registration request to the identity service.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req auth.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding request: %v", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if err := s.Auth.Register(r.Context(), &req); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Registration submitted, check your email"})
	}
}

// HandleConfirmRegister relays the emailed confirmation code.
func (s *Server) HandleConfirmRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if err := s.Auth.ConfirmRegister(r.Context(), req.Email, req.Code); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Email confirmed"})
	}
}

// HandleCheckEmail reports whether an account exists for the given address.
func (s *Server) HandleCheckEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CheckEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		exists, err := s.Auth.CheckEmail(r.Context(), req.Email)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
	}
}

// HandleLogout clears the caller's persisted session.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID := middleware.GetUserIDFromContext(r.Context())
		if userID == "" {
			s.respondError(w, utils.NewUnauthorizedError("missing user identity"))
			return
		}

		if err := s.Sessions.Clear(r.Context(), userID); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// HandleSession returns the caller's persisted session state, the check an
// app performs at startup to decide routing. An expired session comes back
// as 401 and has already been cleared by the store.
func (s *Server) HandleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID := middleware.GetUserIDFromContext(r.Context())
		if userID == "" {
			s.respondError(w, utils.NewUnauthorizedError("missing user identity"))
			return
		}

		session, err := s.Sessions.Load(r.Context(), userID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, session)
	}
}
