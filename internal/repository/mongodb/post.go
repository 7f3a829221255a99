package mongodb

import (
	"context"
	"errors"
	"fmt"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PostRepository handles document operations for posts
type PostRepository struct {
	db       *mongo.Database
	posts    *mongo.Collection
	users    *mongo.Collection
	comments *mongo.Collection
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		db:       db,
		posts:    db.Collection(postsCollection),
		users:    db.Collection(usersCollection),
		comments: db.Collection(commentsCollection),
	}
}

// Create inserts the post and pushes it onto the author's post list
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	doc := *post
	doc.Likes = nonNil(doc.Likes)
	doc.Comments = nonNil(doc.Comments)

	return withTransaction(ctx, r.db, func(ctx context.Context) error {
		if _, err := r.posts.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		result, err := r.users.UpdateOne(ctx, byID(doc.AuthorID),
			bson.D{{Key: "$push", Value: bson.D{{Key: "posts", Value: doc.ID}}}})
		if err != nil {
			return fmt.Errorf("failed to append post to author: %w", err)
		}
		if result.MatchedCount == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, byID(id)).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// List retrieves all posts, newest first
func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	return r.find(ctx, bson.D{})
}

// ListByAuthor retrieves the author's posts, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	return r.find(ctx, bson.D{{Key: "author_id", Value: authorID}})
}

func (r *PostRepository) find(ctx context.Context, filter bson.D) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*models.Post, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

// AddLike adds the user to the post's liker set
func (r *PostRepository) AddLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, "$addToSet", postID, userID)
}

// RemoveLike removes the user from the post's liker set
func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, "$pull", postID, userID)
}

func (r *PostRepository) updateLikes(ctx context.Context, op, postID, userID string) error {
	result, err := r.posts.UpdateOne(ctx, byID(postID),
		bson.D{{Key: op, Value: bson.D{{Key: "likes", Value: userID}}}})
	if err != nil {
		return fmt.Errorf("failed to update likes: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the post, pulls it from its owner and from every bookmark set,
// and deletes its comments, all in one transaction
func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	return withTransaction(ctx, r.db, func(ctx context.Context) error {
		var post models.Post
		if err := r.posts.FindOneAndDelete(ctx, byID(postID)).Decode(&post); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("failed to delete post: %w", err)
		}

		if _, err := r.users.UpdateOne(ctx, byID(post.AuthorID),
			bson.D{{Key: "$pull", Value: bson.D{{Key: "posts", Value: postID}}}}); err != nil {
			return fmt.Errorf("failed to remove post from author: %w", err)
		}
		if _, err := r.users.UpdateMany(ctx, bson.D{{Key: "bookmarks", Value: postID}},
			bson.D{{Key: "$pull", Value: bson.D{{Key: "bookmarks", Value: postID}}}}); err != nil {
			return fmt.Errorf("failed to remove post from bookmarks: %w", err)
		}
		if _, err := r.comments.DeleteMany(ctx, bson.D{{Key: "post_id", Value: postID}}); err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		return nil
	})
}
