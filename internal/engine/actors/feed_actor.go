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

// Message types for feed operations
type (
	// LoadFeedMsg starts a full feed rebuild. The actor answers immediately
	// with the generation it assigned; assembly completes asynchronously.
	LoadFeedMsg struct{}

	// GetFeedMsg returns a deep-copied snapshot of the assembled tree.
	GetFeedMsg struct{}

	SubmitCommentMsg struct {
		PostID         string `json:"postId"`
		AuthorName     string `json:"authorName"`
		AuthorImageURL string `json:"authorImageUrl,omitempty"`
		Text           string `json:"text"`
	}

	SubmitReplyMsg struct {
		PostID     string `json:"postId"`
		CommentID  string `json:"commentId"`
		AuthorName string `json:"authorName"`
		Text       string `json:"text"`
	}

	ToggleLikeMsg struct {
		PostID string `json:"postId"`
		UserID string `json:"userId"`
	}

	SetApprovalMsg struct {
		PostID   string `json:"postId"`
		Approved bool   `json:"approved"`
	}

	LoadStartedResult struct {
		Generation uint64 `json:"generation"`
	}

	ToggleLikeResult struct {
		PostID    string `json:"postId"`
		Liked     bool   `json:"liked"`
		LikeCount int    `json:"likeCount"`
	}

	ApprovalResult struct {
		PostID   string `json:"postId"`
		Approved bool   `json:"approved"`
	}

	// Internal fan-out results. Every result carries the generation that
	// issued it and the ids of its branch; merges key on those ids, never on
	// completion order.
	postsLoadedMsg struct {
		generation uint64
		posts      []*models.Post
		err        error
	}

	commentsLoadedMsg struct {
		generation uint64
		postID     string
		comments   []*models.Comment
		err        error
	}

	repliesLoadedMsg struct {
		generation uint64
		postID     string
		commentID  string
		replies    []*models.Reply
		err        error
	}
)

// FeedEvent is pushed to connected clients whenever the feed changes.
type FeedEvent struct {
	Type      string `json:"type"`
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// EventPublisher decouples the feed actor from the websocket hub.
type EventPublisher interface {
	PublishEvent(event *FeedEvent)
}

// FeedActor owns the in-memory post/comment/reply tree. All tree mutation
// happens inside Receive, so branch results that complete out of order are
// merged one at a time and can never race each other. A generation counter
// supersedes in-flight loads: results stamped with an old generation are
// dropped instead of overwriting fresher state.
type FeedActor struct {
	store      database.Store
	publisher  EventPublisher
	metrics    *utils.MetricsCollector
	feed       map[string]*models.FeedPost
	order      []string
	generation uint64
	timeout    time.Duration
}

func NewFeedActor(store database.Store, publisher EventPublisher, metrics *utils.MetricsCollector) actor.Actor {
	return &FeedActor{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		feed:      make(map[string]*models.FeedPost),
		timeout:   10 * time.Second,
	}
}

func (a *FeedActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("FeedActor started with PID: %v", context.Self())

	case *actor.Stopping:
		log.Printf("FeedActor stopping")

	case *LoadFeedMsg:
		a.handleLoadFeed(context)

	case *GetFeedMsg:
		a.handleGetFeed(context)

	case *SubmitCommentMsg:
		a.handleSubmitComment(context, msg)

	case *SubmitReplyMsg:
		a.handleSubmitReply(context, msg)

	case *ToggleLikeMsg:
		a.handleToggleLike(context, msg)

	case *SetApprovalMsg:
		a.handleSetApproval(context, msg)

	case *postsLoadedMsg:
		a.handlePostsLoaded(context, msg)

	case *commentsLoadedMsg:
		a.handleCommentsLoaded(context, msg)

	case *repliesLoadedMsg:
		a.handleRepliesLoaded(context, msg)

	default:
		log.Printf("FeedActor: Unknown message type %T", msg)
	}
}

// handleLoadFeed bumps the generation so any still-in-flight branches of the
// previous load become stale, then kicks off the root fetch.
func (a *FeedActor) handleLoadFeed(context actor.Context) {
	a.generation++
	gen := a.generation
	self := context.Self()
	system := context.ActorSystem()

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
		defer cancel()
		posts, err := a.store.GetAllPosts(ctx)
		system.Root.Send(self, &postsLoadedMsg{generation: gen, posts: posts, err: err})
	}()

	context.Respond(&LoadStartedResult{Generation: gen})
}

func (a *FeedActor) handlePostsLoaded(context actor.Context, msg *postsLoadedMsg) {
	if msg.generation != a.generation {
		log.Printf("FeedActor: Discarding stale post list (generation %d, current %d)", msg.generation, a.generation)
		return
	}
	if msg.err != nil {
		// Failed root fetch keeps the prior tree in place rather than
		// forcing a blank feed.
		log.Printf("FeedActor: Failed to load posts: %v", msg.err)
		return
	}

	feed := make(map[string]*models.FeedPost, len(msg.posts))
	order := make([]string, 0, len(msg.posts))
	for _, post := range msg.posts {
		feed[post.ID] = &models.FeedPost{Post: post, Comments: []*models.CommentThread{}}
		order = append(order, post.ID)
	}
	a.feed = feed
	a.order = order

	// Fan out one comment fetch per post. Branches are independent: one
	// failing or finishing late does not hold up its siblings.
	for _, post := range msg.posts {
		a.fetchCommentBranch(context, msg.generation, post.ID)
	}
}

func (a *FeedActor) fetchCommentBranch(context actor.Context, gen uint64, postID string) {
	self := context.Self()
	system := context.ActorSystem()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
		defer cancel()
		comments, err := a.store.GetPostComments(ctx, postID)
		system.Root.Send(self, &commentsLoadedMsg{generation: gen, postID: postID, comments: comments, err: err})
	}()
}

func (a *FeedActor) handleCommentsLoaded(context actor.Context, msg *commentsLoadedMsg) {
	if msg.generation != a.generation {
		log.Printf("FeedActor: Discarding stale comments for post %s", msg.postID)
		return
	}
	if msg.err != nil {
		log.Printf("FeedActor: Failed to load comments for post %s: %v", msg.postID, msg.err)
		return
	}

	entry, ok := a.feed[msg.postID]
	if !ok {
		log.Printf("FeedActor: Comments arrived for unknown post %s", msg.postID)
		return
	}

	threads := make([]*models.CommentThread, 0, len(msg.comments))
	for _, comment := range msg.comments {
		threads = append(threads, &models.CommentThread{Comment: comment, Replies: []*models.Reply{}})
	}
	entry.Comments = threads

	for _, comment := range msg.comments {
		a.fetchReplyBranch(context, msg.generation, msg.postID, comment.ID)
	}
}

func (a *FeedActor) fetchReplyBranch(context actor.Context, gen uint64, postID, commentID string) {
	self := context.Self()
	system := context.ActorSystem()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
		defer cancel()
		replies, err := a.store.GetCommentReplies(ctx, commentID)
		system.Root.Send(self, &repliesLoadedMsg{generation: gen, postID: postID, commentID: commentID, replies: replies, err: err})
	}()
}

func (a *FeedActor) handleRepliesLoaded(context actor.Context, msg *repliesLoadedMsg) {
	if msg.generation != a.generation {
		log.Printf("FeedActor: Discarding stale replies for comment %s", msg.commentID)
		return
	}
	if msg.err != nil {
		log.Printf("FeedActor: Failed to load replies for comment %s: %v", msg.commentID, msg.err)
		return
	}

	entry, ok := a.feed[msg.postID]
	if !ok {
		return
	}
	// Look the comment up by id; the Nth response does not correspond to the
	// Nth dispatched request.
	for _, thread := range entry.Comments {
		if thread.Comment.ID == msg.commentID {
			thread.Replies = msg.replies
			return
		}
	}
	log.Printf("FeedActor: Replies arrived for unknown comment %s on post %s", msg.commentID, msg.postID)
}

func (a *FeedActor) handleGetFeed(context actor.Context) {
	snapshot := make([]*models.FeedPost, 0, len(a.order))
	for _, postID := range a.order {
		if entry, ok := a.feed[postID]; ok {
			snapshot = append(snapshot, entry.Clone())
		}
	}
	context.Respond(snapshot)
}

func (a *FeedActor) handleSubmitComment(context actor.Context, msg *SubmitCommentMsg) {
	startTime := time.Now()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Whitespace-only submissions never reach the store.
		context.Respond(utils.NewEmptyContentError("Comment"))
		return
	}

	// The post has to be present in the last loaded feed; it is not
	// re-validated against the store before the write.
	if _, ok := a.feed[msg.PostID]; !ok {
		context.Respond(utils.NewPostNotFoundError(msg.PostID))
		return
	}

	comment := &models.Comment{
		ID:             shortuuid.New(),
		ParentPostID:   msg.PostID,
		AuthorName:     msg.AuthorName,
		AuthorImageURL: msg.AuthorImageURL,
		Text:           text,
		CreatedAt:      time.Now(),
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()
	if err := a.store.SaveComment(ctx, comment); err != nil {
		log.Printf("FeedActor: Failed to save comment on post %s: %v", msg.PostID, err)
		context.Respond(utils.NewAppError(utils.ErrWriteRejected, "Failed to save comment", err))
		return
	}

	// The refresh round-trip is the only apply path; there is no optimistic
	// local insert.
	a.refreshCommentBranch(ctx, msg.PostID)
	a.publish(&FeedEvent{Type: "comment.created", PostID: msg.PostID, CommentID: comment.ID, Data: comment})

	if a.metrics != nil {
		a.metrics.AddOperationLatency("submit_comment", time.Since(startTime))
	}
	context.Respond(comment)
}

func (a *FeedActor) handleSubmitReply(context actor.Context, msg *SubmitReplyMsg) {
	startTime := time.Now()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		context.Respond(utils.NewEmptyContentError("Reply"))
		return
	}

	entry, ok := a.feed[msg.PostID]
	if !ok {
		context.Respond(utils.NewPostNotFoundError(msg.PostID))
		return
	}
	var thread *models.CommentThread
	for _, t := range entry.Comments {
		if t.Comment.ID == msg.CommentID {
			thread = t
			break
		}
	}
	if thread == nil {
		context.Respond(utils.NewCommentNotFoundError(msg.CommentID))
		return
	}

	reply := &models.Reply{
		ID:              shortuuid.New(),
		ParentCommentID: msg.CommentID,
		AuthorName:      msg.AuthorName,
		Text:            text,
		CreatedAt:       time.Now(),
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()
	if err := a.store.SaveReply(ctx, reply); err != nil {
		log.Printf("FeedActor: Failed to save reply on comment %s: %v", msg.CommentID, err)
		context.Respond(utils.NewAppError(utils.ErrWriteRejected, "Failed to save reply", err))
		return
	}

	// Refresh only this comment's reply branch.
	replies, err := a.store.GetCommentReplies(ctx, msg.CommentID)
	if err != nil {
		log.Printf("FeedActor: Failed to refresh replies for comment %s: %v", msg.CommentID, err)
	} else {
		thread.Replies = replies
	}
	a.publish(&FeedEvent{Type: "reply.created", PostID: msg.PostID, CommentID: msg.CommentID, Data: reply})

	if a.metrics != nil {
		a.metrics.AddOperationLatency("submit_reply", time.Since(startTime))
	}
	context.Respond(reply)
}

// refreshCommentBranch re-runs the comment and reply fetches for a single
// post and swaps the branch in place. Reply fetch errors leave that thread's
// previous replies untouched.
func (a *FeedActor) refreshCommentBranch(ctx stdctx.Context, postID string) {
	entry, ok := a.feed[postID]
	if !ok {
		return
	}

	comments, err := a.store.GetPostComments(ctx, postID)
	if err != nil {
		log.Printf("FeedActor: Failed to refresh comments for post %s: %v", postID, err)
		return
	}

	previous := make(map[string]*models.CommentThread, len(entry.Comments))
	for _, t := range entry.Comments {
		previous[t.Comment.ID] = t
	}

	threads := make([]*models.CommentThread, 0, len(comments))
	for _, comment := range comments {
		replies, err := a.store.GetCommentReplies(ctx, comment.ID)
		if err != nil {
			log.Printf("FeedActor: Failed to refresh replies for comment %s: %v", comment.ID, err)
			if prev, ok := previous[comment.ID]; ok {
				replies = prev.Replies
			} else {
				replies = []*models.Reply{}
			}
		}
		threads = append(threads, &models.CommentThread{Comment: comment, Replies: replies})
	}
	entry.Comments = threads
}

// handleToggleLike flips the caller's like through the record-based store
// path. The counter is adjusted server-side, never computed from the local
// value, so concurrent togglers cannot lose updates.
func (a *FeedActor) handleToggleLike(context actor.Context, msg *ToggleLikeMsg) {
	startTime := time.Now()

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()

	liked, err := a.store.HasLiked(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to check like record", err))
		return
	}

	var count int
	if liked {
		count, err = a.store.UnlikePost(ctx, msg.PostID, msg.UserID)
	} else {
		count, err = a.store.LikePost(ctx, msg.PostID, msg.UserID)
	}
	if err != nil {
		log.Printf("FeedActor: Failed to toggle like on post %s for user %s: %v", msg.PostID, msg.UserID, err)
		context.Respond(err)
		return
	}

	if entry, ok := a.feed[msg.PostID]; ok {
		entry.Post.LikeCount = count
	}

	result := &ToggleLikeResult{PostID: msg.PostID, Liked: !liked, LikeCount: count}
	a.publish(&FeedEvent{Type: "post.liked", PostID: msg.PostID, Data: result})

	if a.metrics != nil {
		a.metrics.AddOperationLatency("toggle_like", time.Since(startTime))
	}
	context.Respond(result)
}

func (a *FeedActor) handleSetApproval(context actor.Context, msg *SetApprovalMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()

	if err := a.store.SetPostApproval(ctx, msg.PostID, msg.Approved); err != nil {
		log.Printf("FeedActor: Failed to set approval on post %s: %v", msg.PostID, err)
		context.Respond(err)
		return
	}

	if entry, ok := a.feed[msg.PostID]; ok {
		entry.Post.IsApproved = msg.Approved
	}

	result := &ApprovalResult{PostID: msg.PostID, Approved: msg.Approved}
	a.publish(&FeedEvent{Type: "post.approved", PostID: msg.PostID, Data: result})
	context.Respond(result)
}

func (a *FeedActor) publish(event *FeedEvent) {
	if a.publisher != nil {
		a.publisher.PublishEvent(event)
	}
}
