package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"sentinel/internal/auth"
	"sentinel/internal/engine"
	"sentinel/internal/session"
	"sentinel/internal/utils"
	"sentinel/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Auth           *auth.Client
	Sessions       session.Store
	Hub            *websocket.Hub
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	authClient *auth.Client,
	sessions session.Store,
	hub *websocket.Hub,
	requestTimeout time.Duration,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second // Default timeout for actor requests
	}
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		Auth:           authClient,
		Sessions:       sessions,
		Hub:            hub,
		RequestTimeout: requestTimeout,
	}
}

// askActor sends a message to an actor and waits for the reply. An AppError
// reply is returned as an error so every handler maps it the same way.
func (s *Server) askActor(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError("engine")
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	if s.Metrics != nil {
		s.Metrics.IncrementErrors()
	}
	if appErr, ok := err.(*utils.AppError); ok {
		status := utils.AppErrorToHTTPStatus(appErr.Code)
		s.respondJSON(w, status, map[string]string{"code": appErr.Code, "message": appErr.Message})
		return
	}
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    utils.ErrDatabase,
		"message": err.Error(),
	})
}
