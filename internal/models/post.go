package models

import (
	"time"
)

type Post struct {
	ID             string    `json:"id"`
	AuthorName     string    `json:"authorName"`
	AuthorImageURL string    `json:"authorImageUrl,omitempty"`
	Text           string    `json:"text"`
	ContentURL     string    `json:"contentUrl,omitempty"` // Optional media attachment
	CreatedAt      time.Time `json:"createdAt"`
	LikeCount      int       `json:"likeCount"`
	IsApproved     bool      `json:"isApproved"`
}

// LikeRecord marks that a user has liked a post. The post's LikeCount is
// derived from these records, never from client arithmetic.
type LikeRecord struct {
	PostID  string    `json:"postId"`
	UserID  string    `json:"userId"`
	LikedAt time.Time `json:"likedAt"`
}
