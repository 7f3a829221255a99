package postgres

import (
	"context"
	"fmt"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create creates a new comment. The post's comment list is derived from
// comments.post_id, so the insert alone appends to it.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, text, author_id, post_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, comment.ID, comment.Text, comment.AuthorID, comment.PostID, comment.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByPosts retrieves the comments of the given posts, newest first
func (r *CommentRepository) ListByPosts(ctx context.Context, postIDs []string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if len(postIDs) == 0 {
		return comments, nil
	}

	query := `
		SELECT id, text, author_id, post_id, created_at
		FROM comments
		WHERE post_id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
