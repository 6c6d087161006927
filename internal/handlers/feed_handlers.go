package handlers

import (
	"log"
	"net/http"
	"time"

	"sentinel/internal/engine/actors"
)

// HandleFeed serves the assembled post/comment/reply tree.
// GET returns the current snapshot; POST kicks off a reload and returns the
// generation it was assigned. Reload is asynchronous: clients poll the GET
// or listen on the websocket for updates.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics != nil {
			s.Metrics.IncrementRequests()
		}
		startTime := time.Now()

		switch r.Method {
		case http.MethodGet:
			result, err := s.askActor(s.Engine.GetFeedActor(), &actors.GetFeedMsg{})
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, result)

		case http.MethodPost:
			log.Printf("Received feed reload request")
			result, err := s.askActor(s.Engine.GetFeedActor(), &actors.LoadFeedMsg{})
			if err != nil {
				s.respondError(w, err)
				return
			}
			s.respondJSON(w, http.StatusAccepted, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.Metrics != nil {
			s.Metrics.AddOperationLatency("feed", time.Since(startTime))
		}
	}
}

// HandleHealth reports post counts and collected metrics.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.askActor(s.Engine.GetPostActor(), &actors.GetCountsMsg{})
		if err != nil {
			s.respondError(w, err)
			return
		}

		payload := map[string]interface{}{
			"status":    "healthy",
			"postCount": result,
		}
		if s.Metrics != nil {
			payload["metrics"] = s.Metrics.Snapshot()
		}
		s.respondJSON(w, http.StatusOK, payload)
	}
}
