package postgres

import (
	"context"
	"errors"
	"fmt"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `
	p.id, p.caption, p.image_url, p.author_id, p.created_at,
	ARRAY(SELECT l.user_id FROM post_likes l WHERE l.post_id = p.id ORDER BY l.created_at),
	ARRAY(SELECT c.id FROM comments c WHERE c.post_id = p.id ORDER BY c.created_at, c.id)
`

const foreignKeyViolation = "23503"

// PostRepository handles database operations for posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new post. The author's post list is derived from
// posts.author_id, so the insert alone appends to it.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, caption, image_url, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, post.ID, post.Caption, post.ImageURL, post.AuthorID, post.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`
	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List retrieves all posts, newest first
func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p ORDER BY p.created_at DESC, p.id DESC`
	return r.query(ctx, query)
}

// ListByAuthor retrieves the author's posts, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.id DESC`
	return r.query(ctx, query, authorID)
}

func (r *PostRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// AddLike adds the user to the post's liker set
func (r *PostRepository) AddLike(ctx context.Context, postID, userID string) error {
	query := `
		INSERT INTO post_likes (post_id, user_id)
		SELECT p.id, $2 FROM posts p WHERE p.id = $1
		ON CONFLICT DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.ensureExists(ctx, postID)
	}
	return nil
}

// RemoveLike removes the user from the post's liker set
func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.ensureExists(ctx, postID)
	}
	return nil
}

// Delete deletes a post. Likes, comments and bookmarks go with it through
// ON DELETE CASCADE; the explicit comment delete keeps the cascade visible
// in the same transaction.
func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		result, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if result.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) ensureExists(ctx context.Context, postID string) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check post existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.Caption, &post.ImageURL, &post.AuthorID, &post.CreatedAt,
		&post.Likes, &post.Comments,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
