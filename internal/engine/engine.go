package engine

import (
	"sentinel/internal/database"
	"sentinel/internal/engine/actors"
	"sentinel/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	feedActor *actor.PID
	postActor *actor.PID
}

func NewEngine(system *actor.ActorSystem, store database.Store, publisher actors.EventPublisher, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	// Spawn feed actor
	feedProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFeedActor(store, publisher, metrics)
	})
	feedPID := context.Spawn(feedProps)

	// Spawn post actor
	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(store, publisher, metrics)
	})
	postPID := context.Spawn(postProps)

	return &Engine{
		feedActor: feedPID,
		postActor: postPID,
	}
}

// GetFeedActor returns the PID of the feed actor
func (e *Engine) GetFeedActor() *actor.PID {
	return e.feedActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}
