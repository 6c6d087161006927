// internal/database/comment_repository.go
package database

import (
	"context"
	"log"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents the MongoDB schema for a comment.
type CommentDocument struct {
	ID             string    `bson:"_id"`
	PostID         string    `bson:"postid"`
	AuthorName     string    `bson:"authorname"`
	AuthorImageURL string    `bson:"authorimageurl,omitempty"`
	Text           string    `bson:"text"`
	CreatedAt      time.Time `bson:"createdat"`
}

// ReplyDocument represents the MongoDB schema for a reply.
type ReplyDocument struct {
	ID         string    `bson:"_id"`
	CommentID  string    `bson:"commentid"`
	AuthorName string    `bson:"authorname"`
	Text       string    `bson:"text"`
	CreatedAt  time.Time `bson:"createdat"`
}

func commentToDocument(comment *models.Comment) *CommentDocument {
	return &CommentDocument{
		ID:             comment.ID,
		PostID:         comment.ParentPostID,
		AuthorName:     comment.AuthorName,
		AuthorImageURL: comment.AuthorImageURL,
		Text:           comment.Text,
		CreatedAt:      comment.CreatedAt,
	}
}

func documentToComment(doc *CommentDocument) *models.Comment {
	return &models.Comment{
		ID:             doc.ID,
		ParentPostID:   doc.PostID,
		AuthorName:     doc.AuthorName,
		AuthorImageURL: doc.AuthorImageURL,
		Text:           doc.Text,
		CreatedAt:      doc.CreatedAt,
	}
}

func replyToDocument(reply *models.Reply) *ReplyDocument {
	return &ReplyDocument{
		ID:         reply.ID,
		CommentID:  reply.ParentCommentID,
		AuthorName: reply.AuthorName,
		Text:       reply.Text,
		CreatedAt:  reply.CreatedAt,
	}
}

func documentToReply(doc *ReplyDocument) *models.Reply {
	return &models.Reply{
		ID:              doc.ID,
		ParentCommentID: doc.CommentID,
		AuthorName:      doc.AuthorName,
		Text:            doc.Text,
		CreatedAt:       doc.CreatedAt,
	}
}

// SaveComment inserts a new comment document. Comments are never edited, so
// this is insert-only.
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	_, err := m.Comments.InsertOne(ctx, commentToDocument(comment))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save comment", err)
	}
	return nil
}

// GetPostComments lists a post's comments in insertion order. No explicit
// sort key is maintained beyond the creation timestamp.
func (m *MongoDB) GetPostComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postid": postID}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to list comments", err)
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding comment document: %v", err)
			continue
		}
		comments = append(comments, documentToComment(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Cursor error listing comments", err)
	}

	return comments, nil
}

// SaveReply inserts a new reply document.
func (m *MongoDB) SaveReply(ctx context.Context, reply *models.Reply) error {
	_, err := m.Replies.InsertOne(ctx, replyToDocument(reply))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save reply", err)
	}
	return nil
}

// GetCommentReplies lists a comment's replies in insertion order.
func (m *MongoDB) GetCommentReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}})
	cursor, err := m.Replies.Find(ctx, bson.M{"commentid": commentID}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to list replies", err)
	}
	defer cursor.Close(ctx)

	var replies []*models.Reply
	for cursor.Next(ctx) {
		var doc ReplyDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding reply document: %v", err)
			continue
		}
		replies = append(replies, documentToReply(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Cursor error listing replies", err)
	}

	return replies, nil
}
