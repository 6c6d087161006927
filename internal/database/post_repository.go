// internal/database/post_repository.go
package database

import (
	"context"
	"log"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID             string    `bson:"_id"`
	AuthorName     string    `bson:"authorname"`
	AuthorImageURL string    `bson:"authorimageurl,omitempty"`
	Text           string    `bson:"text"`
	ContentURL     string    `bson:"contenturl,omitempty"`
	CreatedAt      time.Time `bson:"createdat"`
	LikeCount      int       `bson:"likecount"`
	IsApproved     bool      `bson:"isapproved"`
}

// LikeDocument is one per-user like record.
type LikeDocument struct {
	PostID  string    `bson:"postid"`
	UserID  string    `bson:"userid"`
	LikedAt time.Time `bson:"likedat"`
}

func postToDocument(post *models.Post) *PostDocument {
	return &PostDocument{
		ID:             post.ID,
		AuthorName:     post.AuthorName,
		AuthorImageURL: post.AuthorImageURL,
		Text:           post.Text,
		ContentURL:     post.ContentURL,
		CreatedAt:      post.CreatedAt,
		LikeCount:      post.LikeCount,
		IsApproved:     post.IsApproved,
	}
}

func documentToPost(doc *PostDocument) *models.Post {
	return &models.Post{
		ID:             doc.ID,
		AuthorName:     doc.AuthorName,
		AuthorImageURL: doc.AuthorImageURL,
		Text:           doc.Text,
		ContentURL:     doc.ContentURL,
		CreatedAt:      doc.CreatedAt,
		LikeCount:      doc.LikeCount,
		IsApproved:     doc.IsApproved,
	}
}

// SavePost creates or updates a post in MongoDB.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID}
	update := bson.M{"$set": doc}

	_, err := m.Posts.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewPostNotFoundError(postID)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to get post", err)
	}

	return documentToPost(&doc), nil
}

// GetAllPosts lists every post document, oldest first.
func (m *MongoDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}})
	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to list posts", err)
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}
		posts = append(posts, documentToPost(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Cursor error listing posts", err)
	}

	return posts, nil
}

// SetPostApproval sets the moderation flag. Blind single-field write: no
// read-before-write check and no audit trail, authorization is the caller's
// problem.
func (m *MongoDB) SetPostApproval(ctx context.Context, postID string, approved bool) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$set": bson.M{"isapproved": approved}},
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to update approval", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewPostNotFoundError(postID)
	}
	return nil
}

// LikePost inserts a like record for (postID, userID) and increments the
// post's counter server-side. Returns the new count. A second like from the
// same user is rejected by the unique index and reported as a duplicate.
func (m *MongoDB) LikePost(ctx context.Context, postID, userID string) (int, error) {
	_, err := m.Likes.InsertOne(ctx, &LikeDocument{
		PostID:  postID,
		UserID:  userID,
		LikedAt: time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return 0, utils.NewAppError(utils.ErrDuplicate, "Post already liked by user", err)
	}
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to record like", err)
	}

	return m.adjustLikeCount(ctx, postID, 1)
}

// UnlikePost removes the like record and decrements the counter.
func (m *MongoDB) UnlikePost(ctx context.Context, postID, userID string) (int, error) {
	result, err := m.Likes.DeleteOne(ctx, bson.M{"postid": postID, "userid": userID})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to remove like", err)
	}
	if result.DeletedCount == 0 {
		return 0, utils.NewAppError(utils.ErrNotFound, "Like record not found", nil)
	}

	return m.adjustLikeCount(ctx, postID, -1)
}

func (m *MongoDB) adjustLikeCount(ctx context.Context, postID string, delta int) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc PostDocument
	err := m.Posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$inc": bson.M{"likecount": delta}},
		opts,
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, utils.NewPostNotFoundError(postID)
	}
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to adjust like count", err)
	}
	return doc.LikeCount, nil
}

// HasLiked reports whether a like record exists for (postID, userID).
func (m *MongoDB) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	count, err := m.Likes.CountDocuments(ctx, bson.M{"postid": postID, "userid": userID})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "Failed to check like record", err)
	}
	return count > 0, nil
}

// CountPostLikes derives the count from the records themselves.
func (m *MongoDB) CountPostLikes(ctx context.Context, postID string) (int, error) {
	count, err := m.Likes.CountDocuments(ctx, bson.M{"postid": postID})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "Failed to count likes", err)
	}
	return int(count), nil
}

// OverwriteLikeState writes a caller-computed liked flag and counter straight
// into the post document. Two clients that both read count N and toggle
// concurrently will both write N+1 and one like is lost. Kept only so the
// race stays observable; the engine toggles through LikePost/UnlikePost.
func (m *MongoDB) OverwriteLikeState(ctx context.Context, postID string, liked bool, likeCount int) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$set": bson.M{"likecount": likeCount, "isliked": liked}},
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to overwrite like state", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewPostNotFoundError(postID)
	}
	return nil
}
