package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithPost(t *testing.T, postID string) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	err := store.SavePost(context.Background(), &models.Post{
		ID:         postID,
		AuthorName: "alice",
		Text:       "hello",
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	return store
}

func TestMemoryStorePostsOrderedByCreation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	// Insert newest-first to make sure ordering comes from timestamps, not
	// insertion order.
	require.NoError(t, store.SavePost(ctx, &models.Post{ID: "p3", CreatedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, store.SavePost(ctx, &models.Post{ID: "p1", CreatedAt: base}))
	require.NoError(t, store.SavePost(ctx, &models.Post{ID: "p2", CreatedAt: base.Add(time.Minute)}))

	posts, err := store.GetAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "p2", posts[1].ID)
	assert.Equal(t, "p3", posts[2].ID)
}

func TestMemoryStoreCommentAndReplyLookup(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	require.NoError(t, store.SaveComment(ctx, &models.Comment{ID: "c1", ParentPostID: "p1", Text: "first"}))
	require.NoError(t, store.SaveComment(ctx, &models.Comment{ID: "c2", ParentPostID: "p1", Text: "second"}))
	require.NoError(t, store.SaveReply(ctx, &models.Reply{ID: "r1", ParentCommentID: "c1", Text: "reply"}))

	comments, err := store.GetPostComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)

	replies, err := store.GetCommentReplies(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "c1", replies[0].ParentCommentID)

	replies, err = store.GetCommentReplies(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, replies)

	// Unknown parents return empty, not an error; the feed treats a missing
	// branch the same as an empty one.
	comments, err = store.GetPostComments(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestMemoryStoreLikeRecords(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	count, err := store.LikePost(ctx, "p1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second like from the same user is rejected by the record, so the
	// counter can never double-count.
	_, err = store.LikePost(ctx, "p1", "bob")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))

	liked, err := store.HasLiked(ctx, "p1", "bob")
	require.NoError(t, err)
	assert.True(t, liked)

	count, err = store.UnlikePost(ctx, "p1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = store.UnlikePost(ctx, "p1", "bob")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestMemoryStoreConcurrentLikesAllCounted(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	const users = 20
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := "user-" + string(rune('a'+n))
			_, err := store.LikePost(ctx, "p1", userID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	post, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, users, post.LikeCount)

	likes, err := store.CountPostLikes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, users, likes)
}

// TestOverwriteLikeStateLosesConcurrentUpdate documents why the overwrite
// path exists only for comparison: two writers that both read likeCount
// before either wrote end up publishing the same computed value, and one
// increment vanishes. The record-based path above does not have this hole.
func TestOverwriteLikeStateLosesConcurrentUpdate(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	// Both clients read the same base state.
	baseA, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	baseB, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 0, baseA.LikeCount)
	require.Equal(t, 0, baseB.LikeCount)

	// Each computes count+1 from its own stale copy and writes it back.
	require.NoError(t, store.OverwriteLikeState(ctx, "p1", true, baseA.LikeCount+1))
	require.NoError(t, store.OverwriteLikeState(ctx, "p1", true, baseB.LikeCount+1))

	post, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	// Two likes happened, one survives. Last writer wins.
	assert.Equal(t, 1, post.LikeCount)

	// The same two likes through the record path both land.
	fresh := newStoreWithPost(t, "p2")
	_, err = fresh.LikePost(ctx, "p2", "alice")
	require.NoError(t, err)
	count, err := fresh.LikePost(ctx, "p2", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStoreApproval(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	require.NoError(t, store.SetPostApproval(ctx, "p1", true))
	post, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, post.IsApproved)

	err = store.SetPostApproval(ctx, "missing", true)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestMemoryStoreReadsAreCopies(t *testing.T) {
	store := newStoreWithPost(t, "p1")
	ctx := context.Background()

	post, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	post.Text = "mutated"

	again, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Text)
}
