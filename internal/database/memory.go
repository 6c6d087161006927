// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"
)

// MemoryStore implements Store in memory. It backs the actor tests and the
// simulator's dry-run mode; ordering semantics match the MongoDB backend.
type MemoryStore struct {
	mu               sync.RWMutex
	posts            map[string]*models.Post
	comments         map[string]*models.Comment
	replies          map[string]*models.Reply
	commentsByPost   map[string][]string
	repliesByComment map[string][]string
	likes            map[string]map[string]time.Time // postID -> userID -> likedAt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:            make(map[string]*models.Post),
		comments:         make(map[string]*models.Comment),
		replies:          make(map[string]*models.Reply),
		commentsByPost:   make(map[string][]string),
		repliesByComment: make(map[string][]string),
		likes:            make(map[string]map[string]time.Time),
	}
}

func (s *MemoryStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *post
	s.posts[post.ID] = &copied
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID)
	}
	copied := *post
	return &copied, nil
}

func (s *MemoryStore) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		copied := *p
		posts = append(posts, &copied)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) SetPostApproval(ctx context.Context, postID string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return utils.NewPostNotFoundError(postID)
	}
	post.IsApproved = approved
	return nil
}

func (s *MemoryStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *comment
	s.comments[comment.ID] = &copied
	s.commentsByPost[comment.ParentPostID] = append(s.commentsByPost[comment.ParentPostID], comment.ID)
	return nil
}

func (s *MemoryStore) GetPostComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	comments := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		copied := *s.comments[id]
		comments = append(comments, &copied)
	}
	return comments, nil
}

func (s *MemoryStore) SaveReply(ctx context.Context, reply *models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *reply
	s.replies[reply.ID] = &copied
	s.repliesByComment[reply.ParentCommentID] = append(s.repliesByComment[reply.ParentCommentID], reply.ID)
	return nil
}

func (s *MemoryStore) GetCommentReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.repliesByComment[commentID]
	replies := make([]*models.Reply, 0, len(ids))
	for _, id := range ids {
		copied := *s.replies[id]
		replies = append(replies, &copied)
	}
	return replies, nil
}

func (s *MemoryStore) LikePost(ctx context.Context, postID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, utils.NewPostNotFoundError(postID)
	}
	if s.likes[postID] == nil {
		s.likes[postID] = make(map[string]time.Time)
	}
	if _, liked := s.likes[postID][userID]; liked {
		return 0, utils.NewAppError(utils.ErrDuplicate, "Post already liked by user", nil)
	}
	s.likes[postID][userID] = time.Now()
	post.LikeCount++
	return post.LikeCount, nil
}

func (s *MemoryStore) UnlikePost(ctx context.Context, postID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, utils.NewPostNotFoundError(postID)
	}
	if _, liked := s.likes[postID][userID]; !liked {
		return 0, utils.NewAppError(utils.ErrNotFound, "Like record not found", nil)
	}
	delete(s.likes[postID], userID)
	post.LikeCount--
	return post.LikeCount, nil
}

func (s *MemoryStore) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, liked := s.likes[postID][userID]
	return liked, nil
}

func (s *MemoryStore) CountPostLikes(ctx context.Context, postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.likes[postID]), nil
}

// OverwriteLikeState mirrors the MongoDB backend's last-writer-wins path:
// whatever the caller computed wins, no matter how stale its base was.
func (s *MemoryStore) OverwriteLikeState(ctx context.Context, postID string, liked bool, likeCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return utils.NewPostNotFoundError(postID)
	}
	post.LikeCount = likeCount
	return nil
}
