package mongodb

import (
	"context"
	"fmt"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CommentRepository handles document operations for comments
type CommentRepository struct {
	db       *mongo.Database
	posts    *mongo.Collection
	comments *mongo.Collection
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{
		db:       db,
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
	}
}

// Create pushes the comment onto the post's comment list and inserts it
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return withTransaction(ctx, r.db, func(ctx context.Context) error {
		result, err := r.posts.UpdateOne(ctx, byID(comment.PostID),
			bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: comment.ID}}}})
		if err != nil {
			return fmt.Errorf("failed to append comment to post: %w", err)
		}
		if result.MatchedCount == 0 {
			return repository.ErrNotFound
		}
		if _, err := r.comments.InsertOne(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
}

// ListByPosts retrieves the comments of the given posts, newest first
func (r *CommentRepository) ListByPosts(ctx context.Context, postIDs []string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if len(postIDs) == 0 {
		return comments, nil
	}

	filter := bson.D{{Key: "post_id", Value: bson.D{{Key: "$in", Value: postIDs}}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}
