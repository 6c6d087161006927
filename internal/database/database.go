// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"sentinel/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store defines the document-store operations the engine depends on.
// MongoDB is the production backend; MemoryStore backs tests.
type Store interface {
	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]*models.Post, error)
	SetPostApproval(ctx context.Context, postID string, approved bool) error

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetPostComments(ctx context.Context, postID string) ([]*models.Comment, error)

	// Reply methods
	SaveReply(ctx context.Context, reply *models.Reply) error
	GetCommentReplies(ctx context.Context, commentID string) ([]*models.Reply, error)

	// Like methods. LikePost/UnlikePost maintain a per-user like record and
	// adjust the denormalized counter atomically on the server side, so the
	// counter always matches the records. OverwriteLikeState is the legacy
	// read-modify-write path that blindly $sets caller-computed values; it is
	// last-writer-wins and loses updates under concurrent toggles.
	LikePost(ctx context.Context, postID, userID string) (int, error)
	UnlikePost(ctx context.Context, postID, userID string) (int, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	CountPostLikes(ctx context.Context, postID string) (int, error)
	OverwriteLikeState(ctx context.Context, postID string, liked bool, likeCount int) error
}

type MongoDB struct {
	Client   *mongo.Client
	Posts    *mongo.Collection
	Comments *mongo.Collection
	Replies  *mongo.Collection
	Likes    *mongo.Collection
}

func NewMongoDB(uri string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Println("Successfully connected to MongoDB!")

	// Initialize database and collections
	db := client.Database("sentinel")
	m := &MongoDB{
		Client:   client,
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
		Replies:  db.Collection("replies"),
		Likes:    db.Collection("likes"),
	}

	// One like record per (post, user). The unique index is what makes the
	// record-based toggle safe under concurrent writers.
	_, err = m.Likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postid", Value: 1}, {Key: "userid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create likes index: %v", err)
	}

	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
