package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"sentinel/internal/engine/actors"
	"sentinel/internal/middleware"
	"sentinel/internal/utils"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	AuthorName     string `json:"authorName"`
	AuthorImageURL string `json:"authorImageUrl,omitempty"`
	Text           string `json:"text"`
	ContentURL     string `json:"contentUrl,omitempty"`
}

// ToggleLikeRequest identifies the post to toggle; the user comes from the
// verified token, never from the body.
type ToggleLikeRequest struct {
	PostID string `json:"postId"`
}

// SetApprovalRequest carries the caller-supplied moderation state.
type SetApprovalRequest struct {
	PostID   string `json:"postId"`
	Approved bool   `json:"approved"`
}

// HandlePost handles post creation and lookup
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}

		switch r.Method {
		case http.MethodPost:
			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				log.Printf("Error decoding request: %v", err)
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, err := s.askActor(s.Engine.GetPostActor(), &actors.CreatePostMsg{
				AuthorName:     req.AuthorName,
				AuthorImageURL: req.AuthorImageURL,
				Text:           req.Text,
				ContentURL:     req.ContentURL,
			})
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.respondJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			postID := r.URL.Query().Get("id")
			if postID == "" {
				http.Error(w, "Post ID required", http.StatusBadRequest)
				return
			}
			result, err := s.askActor(s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID})
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandlePostLike toggles the authenticated user's like on a post.
func (s *Server) HandlePostLike() http.HandlerFunc {
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

		var req ToggleLikeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding request: %v", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.askActor(s.Engine.GetFeedActor(), &actors.ToggleLikeMsg{
			PostID: req.PostID,
			UserID: userID,
		})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}

// HandlePostApproval sets the moderation flag on a post.
func (s *Server) HandlePostApproval() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req SetApprovalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding request: %v", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.askActor(s.Engine.GetFeedActor(), &actors.SetApprovalMsg{
			PostID:   req.PostID,
			Approved: req.Approved,
		})
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	}
}
