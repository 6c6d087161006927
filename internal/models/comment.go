package models

import (
	"time"
)

// Comment is a child of exactly one post. Comments are immutable once
// created; there is no edit or delete flow.
type Comment struct {
	ID             string    `json:"id"`
	ParentPostID   string    `json:"parentPostId"`
	AuthorName     string    `json:"authorName"`
	AuthorImageURL string    `json:"authorImageUrl,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Reply is a child of exactly one comment, same lifecycle as Comment.
type Reply struct {
	ID              string    `json:"id"`
	ParentCommentID string    `json:"parentCommentId"`
	AuthorName      string    `json:"authorName"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"createdAt"`
}
