package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"sentinel/internal/database"
	"sentinel/internal/models"
	"sentinel/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lithammer/shortuuid/v4"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		AuthorName     string `json:"authorName"`
		AuthorImageURL string `json:"authorImageUrl,omitempty"`
		Text           string `json:"text"`
		ContentURL     string `json:"contentUrl,omitempty"`
	}

	GetPostMsg struct {
		PostID string `json:"postId"`
	}

	GetCountsMsg struct{}

	loadPostsFromDBMsg struct{}
)

// PostActor handles post creation and lookups. It keeps a by-id cache of
// posts it has seen, hydrated from the store at startup.
type PostActor struct {
	postsByID map[string]*models.Post
	store     database.Store
	publisher EventPublisher
	metrics   *utils.MetricsCollector
	timeout   time.Duration
}

func NewPostActor(store database.Store, publisher EventPublisher, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{
		postsByID: make(map[string]*models.Post),
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		timeout:   10 * time.Second,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started with PID: %v", context.Self())
		context.Send(context.Self(), &loadPostsFromDBMsg{})

	case *loadPostsFromDBMsg:
		a.handleLoadPosts()

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)

	case *GetPostMsg:
		a.handleGetPost(context, msg)

	case *GetCountsMsg:
		context.Respond(len(a.postsByID))

	default:
		log.Printf("PostActor: Unknown message type %T", msg)
	}
}

func (a *PostActor) handleLoadPosts() {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()

	posts, err := a.store.GetAllPosts(ctx)
	if err != nil {
		log.Printf("PostActor: Failed to load posts from store: %v", err)
		return
	}
	for _, post := range posts {
		a.postsByID[post.ID] = post
	}
	log.Printf("PostActor: Loaded %d posts from store", len(posts))
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		context.Respond(utils.NewEmptyContentError("Post"))
		return
	}
	if strings.TrimSpace(msg.AuthorName) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Author name is required", nil))
		return
	}

	post := &models.Post{
		ID:             shortuuid.New(),
		AuthorName:     msg.AuthorName,
		AuthorImageURL: msg.AuthorImageURL,
		Text:           text,
		ContentURL:     msg.ContentURL,
		CreatedAt:      time.Now(),
		LikeCount:      0,
		IsApproved:     false,
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()
	if err := a.store.SavePost(ctx, post); err != nil {
		log.Printf("PostActor: Failed to save post: %v", err)
		context.Respond(utils.NewAppError(utils.ErrWriteRejected, "Failed to save post", err))
		return
	}

	a.postsByID[post.ID] = post
	if a.publisher != nil {
		a.publisher.PublishEvent(&FeedEvent{Type: "post.created", PostID: post.ID, Data: post})
	}

	if a.metrics != nil {
		a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	}
	context.Respond(post)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	if post, ok := a.postsByID[msg.PostID]; ok {
		context.Respond(post)
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()
	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.postsByID[post.ID] = post
	context.Respond(post)
}
