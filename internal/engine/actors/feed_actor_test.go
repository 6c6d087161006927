package actors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sentinel/internal/database"
	"sentinel/internal/models"
	"sentinel/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, store database.Store, id, author string, createdAt time.Time) {
	t.Helper()
	err := store.SavePost(context.Background(), &models.Post{
		ID:         id,
		AuthorName: author,
		Text:       "Post by " + author,
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
}

func seedComment(t *testing.T, store database.Store, id, postID, author, text string) {
	t.Helper()
	err := store.SaveComment(context.Background(), &models.Comment{
		ID:           id,
		ParentPostID: postID,
		AuthorName:   author,
		Text:         text,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
}

func seedReply(t *testing.T, store database.Store, id, commentID, author, text string) {
	t.Helper()
	err := store.SaveReply(context.Background(), &models.Reply{
		ID:              id,
		ParentCommentID: commentID,
		AuthorName:      author,
		Text:            text,
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)
}

func spawnFeedActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedActor(store, nil, nil)
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() { system.Root.Stop(pid) })
	return system, pid
}

func getSnapshot(t *testing.T, system *actor.ActorSystem, pid *actor.PID) []*models.FeedPost {
	t.Helper()
	future := system.Root.RequestFuture(pid, &GetFeedMsg{}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result.([]*models.FeedPost)
}

func loadFeed(t *testing.T, system *actor.ActorSystem, pid *actor.PID) uint64 {
	t.Helper()
	future := system.Root.RequestFuture(pid, &LoadFeedMsg{}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result.(*LoadStartedResult).Generation
}

// waitForFeed polls the snapshot until cond is satisfied. Assembly is
// asynchronous so tests cannot observe the tree right after LoadFeedMsg.
func waitForFeed(t *testing.T, system *actor.ActorSystem, pid *actor.PID, cond func([]*models.FeedPost) bool) []*models.FeedPost {
	t.Helper()
	var snapshot []*models.FeedPost
	require.Eventually(t, func() bool {
		snapshot = getSnapshot(t, system, pid)
		return cond(snapshot)
	}, 5*time.Second, 20*time.Millisecond)
	return snapshot
}

func TestFeedActorAssemblesTree(t *testing.T) {
	store := database.NewMemoryStore()
	base := time.Now().Add(-time.Hour)
	seedPost(t, store, "p1", "alice", base)
	seedPost(t, store, "p2", "carol", base.Add(time.Minute))
	seedComment(t, store, "c1", "p1", "alice", "First!")
	seedComment(t, store, "c2", "p1", "bob", "Nice one")
	seedReply(t, store, "r1", "c1", "bob", "@alice agreed")

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)

	snapshot := waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 2 && len(feed[0].Comments) == 2 && len(feed[0].Comments[0].Replies) == 1
	})

	assert.Equal(t, "p1", snapshot[0].Post.ID)
	assert.Equal(t, "p2", snapshot[1].Post.ID)

	// Every comment hangs off the post that owns it, every reply off its
	// comment, regardless of which branch fetch finished first.
	for _, thread := range snapshot[0].Comments {
		assert.Equal(t, "p1", thread.Comment.ParentPostID)
		for _, reply := range thread.Replies {
			assert.Equal(t, thread.Comment.ID, reply.ParentCommentID)
		}
	}
	assert.Equal(t, "c1", snapshot[0].Comments[0].Comment.ID)
	assert.Equal(t, "r1", snapshot[0].Comments[0].Replies[0].ID)
	assert.Empty(t, snapshot[1].Comments)
}

func TestFeedActorMergesRepliesByCommentID(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())
	seedComment(t, store, "c1", "p1", "alice", "first comment")
	seedComment(t, store, "c2", "p1", "bob", "second comment")
	seedReply(t, store, "seed-r1", "c1", "carol", "placeholder")
	seedReply(t, store, "seed-r2", "c2", "carol", "placeholder")

	system, pid := spawnFeedActor(t, store)
	gen := loadFeed(t, system, pid)

	// Let the load's own reply branches land first so the crafted results
	// below are the only thing still mutating the tree.
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1 && len(feed[0].Comments) == 2 &&
			len(feed[0].Comments[0].Replies) == 1 && len(feed[0].Comments[1].Replies) == 1
	})

	// Deliver the branch results in reverse dispatch order. The merge keys on
	// the comment id, so each batch must land on its own thread.
	system.Root.Send(pid, &repliesLoadedMsg{
		generation: gen,
		postID:     "p1",
		commentID:  "c2",
		replies:    []*models.Reply{{ID: "r2", ParentCommentID: "c2", AuthorName: "dave"}},
	})
	system.Root.Send(pid, &repliesLoadedMsg{
		generation: gen,
		postID:     "p1",
		commentID:  "c1",
		replies:    []*models.Reply{{ID: "r1", ParentCommentID: "c1", AuthorName: "bob"}},
	})

	snapshot := waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return feed[0].Comments[0].Replies[0].ID == "r1" && feed[0].Comments[1].Replies[0].ID == "r2"
	})
	assert.Equal(t, "c1", snapshot[0].Comments[0].Replies[0].ParentCommentID)
	assert.Equal(t, "c2", snapshot[0].Comments[1].Replies[0].ParentCommentID)
}

func TestFeedActorDiscardsStaleGeneration(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())
	seedComment(t, store, "real", "p1", "bob", "from the store")

	system, pid := spawnFeedActor(t, store)
	staleGen := loadFeed(t, system, pid)
	currentGen := loadFeed(t, system, pid)
	require.Greater(t, currentGen, staleGen)

	// Wait until the live load's own branches have all landed, so nothing
	// genuine is still in flight when the crafted results arrive.
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1 && len(feed[0].Comments) == 1
	})

	// A branch result from the superseded load must be dropped, not merged.
	// The mailbox processes it before the snapshot request below.
	system.Root.Send(pid, &commentsLoadedMsg{
		generation: staleGen,
		postID:     "p1",
		comments:   []*models.Comment{{ID: "stale", ParentPostID: "p1", Text: "from an old load"}},
	})
	snapshot := getSnapshot(t, system, pid)
	require.Len(t, snapshot[0].Comments, 1)
	assert.Equal(t, "real", snapshot[0].Comments[0].Comment.ID)

	// The same payload stamped with the live generation goes through.
	system.Root.Send(pid, &commentsLoadedMsg{
		generation: currentGen,
		postID:     "p1",
		comments:   []*models.Comment{{ID: "fresh", ParentPostID: "p1", Text: "from the current load"}},
	})
	snapshot = waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed[0].Comments) == 1 && feed[0].Comments[0].Comment.ID == "fresh"
	})
	assert.Equal(t, "fresh", snapshot[0].Comments[0].Comment.ID)
}

// failingCommentStore fails the comment fetch for one post so a single bad
// branch can be observed against healthy siblings.
type failingCommentStore struct {
	database.Store
	failPostID string
}

func (s *failingCommentStore) GetPostComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if postID == s.failPostID {
		return nil, fmt.Errorf("simulated fetch failure for post %s", postID)
	}
	return s.Store.GetPostComments(ctx, postID)
}

func TestFeedActorKeepsPartialResultsOnBranchFailure(t *testing.T) {
	inner := database.NewMemoryStore()
	base := time.Now().Add(-time.Hour)
	seedPost(t, inner, "p1", "alice", base)
	seedPost(t, inner, "p2", "bob", base.Add(time.Minute))
	seedComment(t, inner, "c1", "p1", "carol", "still here")

	store := &failingCommentStore{Store: inner, failPostID: "p2"}
	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)

	snapshot := waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 2 && len(feed[0].Comments) == 1
	})

	// The failed branch is skipped; its siblings and the post list survive.
	assert.Equal(t, "p2", snapshot[1].Post.ID)
	assert.Empty(t, snapshot[1].Comments)
	assert.Equal(t, "c1", snapshot[0].Comments[0].Comment.ID)
}

func TestFeedActorSubmitComment(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1
	})

	future := system.Root.RequestFuture(pid, &SubmitCommentMsg{
		PostID:     "p1",
		AuthorName: "bob",
		Text:       "  great post  ",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	comment, ok := result.(*models.Comment)
	require.True(t, ok, "expected a comment, got %T", result)
	assert.Equal(t, "p1", comment.ParentPostID)
	assert.Equal(t, "great post", comment.Text)
	assert.NotEmpty(t, comment.ID)

	// The comment shows up in the snapshot via the refresh round-trip.
	snapshot := getSnapshot(t, system, pid)
	require.Len(t, snapshot[0].Comments, 1)
	assert.Equal(t, comment.ID, snapshot[0].Comments[0].Comment.ID)
}

func TestFeedActorRejectsWhitespaceComment(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1
	})

	future := system.Root.RequestFuture(pid, &SubmitCommentMsg{
		PostID:     "p1",
		AuthorName: "bob",
		Text:       "   \n\t  ",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an error, got %T", result)
	assert.Equal(t, utils.ErrEmptyContent, appErr.Code)

	// Nothing reached the store.
	comments, err := store.GetPostComments(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestFeedActorSubmitCommentUnknownPost(t *testing.T) {
	store := database.NewMemoryStore()
	system, pid := spawnFeedActor(t, store)

	future := system.Root.RequestFuture(pid, &SubmitCommentMsg{
		PostID:     "missing",
		AuthorName: "bob",
		Text:       "hello",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}

func TestFeedActorSubmitReply(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())
	seedComment(t, store, "c1", "p1", "alice", "original")

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1 && len(feed[0].Comments) == 1
	})

	future := system.Root.RequestFuture(pid, &SubmitReplyMsg{
		PostID:     "p1",
		CommentID:  "c1",
		AuthorName: "bob",
		Text:       "@alice well said",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	reply, ok := result.(*models.Reply)
	require.True(t, ok, "expected a reply, got %T", result)
	assert.Equal(t, "c1", reply.ParentCommentID)
	assert.Equal(t, "@alice well said", reply.Text)

	snapshot := getSnapshot(t, system, pid)
	require.Len(t, snapshot[0].Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, snapshot[0].Comments[0].Replies[0].ID)

	// Replying to a comment that is not in the tree fails cleanly.
	future = system.Root.RequestFuture(pid, &SubmitReplyMsg{
		PostID:     "p1",
		CommentID:  "missing",
		AuthorName: "bob",
		Text:       "orphan",
	}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCommentNotFound, appErr.Code)
}

func TestFeedActorToggleLike(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1
	})

	toggle := func(userID string) *ToggleLikeResult {
		future := system.Root.RequestFuture(pid, &ToggleLikeMsg{PostID: "p1", UserID: userID}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		toggled, ok := result.(*ToggleLikeResult)
		require.True(t, ok, "expected a toggle result, got %T", result)
		return toggled
	}

	first := toggle("bob")
	assert.True(t, first.Liked)
	assert.Equal(t, 1, first.LikeCount)

	// A second toggle from the same user undoes the first; the pair is a
	// round-trip back to the starting state.
	second := toggle("bob")
	assert.False(t, second.Liked)
	assert.Equal(t, 0, second.LikeCount)

	liked, err := store.HasLiked(context.Background(), "p1", "bob")
	require.NoError(t, err)
	assert.False(t, liked)

	// Distinct users accumulate independently.
	assert.Equal(t, 1, toggle("bob").LikeCount)
	assert.Equal(t, 2, toggle("carol").LikeCount)
}

func TestFeedActorSetApproval(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1
	})

	future := system.Root.RequestFuture(pid, &SetApprovalMsg{PostID: "p1", Approved: true}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	approval := result.(*ApprovalResult)
	assert.True(t, approval.Approved)

	post, err := store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, post.IsApproved)

	snapshot := getSnapshot(t, system, pid)
	assert.True(t, snapshot[0].Post.IsApproved)
}

func TestFeedActorSnapshotIsDetached(t *testing.T) {
	store := database.NewMemoryStore()
	seedPost(t, store, "p1", "alice", time.Now())
	seedComment(t, store, "c1", "p1", "bob", "hello")

	system, pid := spawnFeedActor(t, store)
	loadFeed(t, system, pid)
	waitForFeed(t, system, pid, func(feed []*models.FeedPost) bool {
		return len(feed) == 1 && len(feed[0].Comments) == 1
	})

	snapshot := getSnapshot(t, system, pid)
	snapshot[0].Post.Text = "mutated by caller"
	snapshot[0].Comments[0].Comment.Text = "also mutated"

	fresh := getSnapshot(t, system, pid)
	assert.Equal(t, "Post by alice", fresh[0].Post.Text)
	assert.Equal(t, "hello", fresh[0].Comments[0].Comment.Text)
}
