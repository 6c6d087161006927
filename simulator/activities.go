package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"sentinel/internal/composer"
)

var postTexts = []string{
	"Morning walk by the river today, highly recommend.",
	"Anyone tried the new coffee place downtown?",
	"Finally finished that book I kept putting off.",
	"Weekend project: rebuilt the garden fence.",
	"Hot take: autumn is the best season and it's not close.",
	"Lost my keys again. Third time this month.",
	"Made pasta from scratch for the first time!",
}

var commentTexts = []string{
	"Totally agree with this.",
	"Where was this taken?",
	"Haha, been there.",
	"Great post, thanks for sharing!",
	"I had the exact opposite experience.",
	"Following for updates.",
}

func (s *Simulator) SimulateActivities(ctx context.Context) {
	var wg sync.WaitGroup
	for _, user := range s.users {
		wg.Add(1)
		go func(u *SimulatedUser) {
			defer wg.Done()
			s.runUserLoop(ctx, u)
		}(user)
	}

	// One background reader periodically reloads the feed, the way a
	// client refreshes on focus.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.config.ReloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				user := s.users[rand.Intn(len(s.users))]
				if err := s.reloadFeed(user); err != nil {
					log.Printf("Feed reload failed: %v", err)
				}
			}
		}
	}()

	wg.Wait()
}

func (s *Simulator) runUserLoop(ctx context.Context, user *SimulatedUser) {
	// Convert per-minute frequencies into an average think time.
	totalPerMinute := s.config.PostFrequency + s.config.CommentFrequency + s.config.LikeFrequency
	if totalPerMinute <= 0 {
		return
	}
	meanGap := time.Duration(float64(time.Minute) / totalPerMinute)

	for {
		gap := time.Duration(float64(meanGap) * (0.5 + rand.Float64()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(gap):
		}

		roll := rand.Float64() * totalPerMinute
		var err error
		switch {
		case roll < s.config.PostFrequency:
			err = s.createPost(user)
		case roll < s.config.PostFrequency+s.config.CommentFrequency:
			if rand.Float64() < 0.3 {
				err = s.createReply(user)
			} else {
				err = s.createComment(user)
			}
		default:
			err = s.toggleLike(user)
		}
		if err != nil {
			log.Printf("User %s activity failed: %v", user.ID, err)
		}
	}
}

func (s *Simulator) createPost(user *SimulatedUser) error {
	var created struct {
		ID string `json:"id"`
	}
	err := s.sendRequest(user, "POST", "/post", map[string]any{
		"authorName":     user.Name,
		"authorImageUrl": fmt.Sprintf("https://picsum.photos/seed/%s/200", user.ID),
		"text":           postTexts[rand.Intn(len(postTexts))],
	}, &created)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.postIDs = append(s.postIDs, created.ID)
	s.mu.Unlock()
	user.Posts = append(user.Posts, created.ID)

	s.stats.mu.Lock()
	s.stats.TotalPosts++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) createComment(user *SimulatedUser) error {
	postID := s.randomPostID()
	if postID == "" {
		return nil
	}

	var created struct {
		ID string `json:"id"`
	}
	err := s.sendRequest(user, "POST", "/comment", map[string]any{
		"postId":     postID,
		"authorName": user.Name,
		"text":       commentTexts[rand.Intn(len(commentTexts))],
	}, &created)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.comments[postID] = append(s.comments[postID], simComment{ID: created.ID, AuthorName: user.Name})
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) createReply(user *SimulatedUser) error {
	postID, target := s.randomComment()
	if target.ID == "" {
		return s.createComment(user)
	}

	// Replies go through the composer, mirroring how a client writes one:
	// begin-reply pre-fills the @mention, then the draft is submitted.
	c := composer.New()
	c.BeginReply(target.ID, target.AuthorName)
	c.SetDraft(c.Draft() + commentTexts[rand.Intn(len(commentTexts))])

	err := c.Submit(func(targetCommentID, text string) error {
		return s.sendRequest(user, "POST", "/comment", map[string]any{
			"postId":     postID,
			"commentId":  targetCommentID,
			"authorName": user.Name,
			"text":       text,
		}, nil)
	})
	if err != nil {
		return err
	}

	s.stats.mu.Lock()
	s.stats.TotalReplies++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) toggleLike(user *SimulatedUser) error {
	postID := s.randomPostID()
	if postID == "" {
		return nil
	}

	var result struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"likeCount"`
	}
	err := s.sendRequest(user, "POST", "/post/like", map[string]any{
		"postId": postID,
	}, &result)
	if err != nil {
		return err
	}
	user.LikedPosts[postID] = result.Liked

	s.stats.mu.Lock()
	s.stats.TotalLikeToggles++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) reloadFeed(user *SimulatedUser) error {
	if err := s.sendRequest(user, "POST", "/feed", nil, nil); err != nil {
		return err
	}

	// Fetch the merged snapshot and refresh our id pools from it.
	var feed []struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
		Comments []struct {
			Comment struct {
				ID         string `json:"id"`
				AuthorName string `json:"authorName"`
			} `json:"comment"`
		} `json:"comments"`
	}
	if err := s.sendRequest(user, "GET", "/feed", nil, &feed); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.postIDs = s.postIDs[:0]
	for _, p := range feed {
		s.postIDs = append(s.postIDs, p.Post.ID)
		comments := make([]simComment, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, simComment{ID: c.Comment.ID, AuthorName: c.Comment.AuthorName})
		}
		s.comments[p.Post.ID] = comments
	}
	return nil
}

func (s *Simulator) randomPostID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.postIDs) == 0 {
		return ""
	}
	return s.postIDs[rand.Intn(len(s.postIDs))]
}

func (s *Simulator) randomComment() (string, simComment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for pid, comments := range s.comments {
		if len(comments) > 0 {
			return pid, comments[rand.Intn(len(comments))]
		}
	}
	return "", simComment{}
}
