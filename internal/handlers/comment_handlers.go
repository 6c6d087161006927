package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"sentinel/internal/engine/actors"
)

// CreateCommentRequest represents a request to create a comment or, when
// CommentID is set, a reply to that comment.
type CreateCommentRequest struct {
	PostID         string `json:"postId"`
	CommentID      string `json:"commentId,omitempty"` // Optional, for replies
	AuthorName     string `json:"authorName"`
	AuthorImageURL string `json:"authorImageUrl,omitempty"`
	Text           string `json:"text"`
}

// HandleComment handles comment and reply creation
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("Error decoding request: %v", err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.PostID == "" {
			http.Error(w, "Post ID required", http.StatusBadRequest)
			return
		}

		var msg interface{}
		if req.CommentID != "" {
			log.Printf("Creating reply on comment %s (post %s) by %s", req.CommentID, req.PostID, req.AuthorName)
			msg = &actors.SubmitReplyMsg{
				PostID:     req.PostID,
				CommentID:  req.CommentID,
				AuthorName: req.AuthorName,
				Text:       req.Text,
			}
		} else {
			log.Printf("Creating comment on post %s by %s", req.PostID, req.AuthorName)
			msg = &actors.SubmitCommentMsg{
				PostID:         req.PostID,
				AuthorName:     req.AuthorName,
				AuthorImageURL: req.AuthorImageURL,
				Text:           req.Text,
			}
		}

		result, err := s.askActor(s.Engine.GetFeedActor(), msg)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, result)
	}
}
