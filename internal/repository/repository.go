package repository

import (
	"context"
	"errors"

	"snapgram-backend/internal/models"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines persistence operations for users and their graph edges.
type UserRepository interface {
	// Create inserts the user. Uniqueness of username and email is enforced by the
	// store, so a rejected signup never leaves a partial record behind.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetPublic resolves the public fields of the given users. Unknown ids are skipped.
	GetPublic(ctx context.Context, ids []string) (map[string]models.PublicUser, error)
	// ListExcept returns every user but the one with the given id.
	ListExcept(ctx context.Context, id string) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	// ToggleFollow flips the follow edge from followerID to followeeID on both
	// sides in one unit and reports whether the edge exists afterwards.
	ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	// ToggleBookmark flips postID in the user's bookmark set and reports whether
	// it is bookmarked afterwards.
	ToggleBookmark(ctx context.Context, userID, postID string) (bool, error)
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// Create inserts the post and appends it to the author's post list.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// List returns all posts, newest first.
	List(ctx context.Context) ([]*models.Post, error)
	// ListByAuthor returns the author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error)
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	// Delete removes the post, drops it from the owner's post list and from every
	// bookmark set, and deletes its comments.
	Delete(ctx context.Context, postID string) error
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	// Create inserts the comment and appends it to the parent post's comment list.
	// Returns ErrNotFound when the post does not exist.
	Create(ctx context.Context, comment *models.Comment) error
	// ListByPosts returns the comments of the given posts, newest first.
	ListByPosts(ctx context.Context, postIDs []string) ([]*models.Comment, error)
}
