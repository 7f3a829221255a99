package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userColumns selects a full user row with its edge lists aggregated from the
// relation tables.
const userColumns = `
	u.id, u.fullname, u.username, u.email, u.password_hash, u.bio, u.gender,
	u.profile_picture, u.created_at, u.updated_at,
	ARRAY(SELECT p.id FROM posts p WHERE p.author_id = u.id ORDER BY p.created_at, p.id),
	ARRAY(SELECT f.follower_id FROM follows f WHERE f.followee_id = u.id ORDER BY f.created_at),
	ARRAY(SELECT f.followee_id FROM follows f WHERE f.follower_id = u.id ORDER BY f.created_at),
	ARRAY(SELECT b.post_id FROM bookmarks b WHERE b.user_id = u.id ORDER BY b.created_at)
`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, fullname, username, email, password_hash, bio, gender, profile_picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FullName, user.Username, user.Email, user.PasswordHash,
		user.Bio, user.Gender, user.ProfilePicture, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			switch {
			case strings.Contains(constraint, "email"):
				return repository.ErrDuplicateEmail
			case strings.Contains(constraint, "username"):
				return repository.ErrDuplicateUsername
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// GetPublic resolves public fields for a set of user IDs
func (r *UserRepository) GetPublic(ctx context.Context, ids []string) (map[string]models.PublicUser, error) {
	out := make(map[string]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT id, username, profile_picture FROM users WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get public users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.ProfilePicture); err != nil {
			return nil, fmt.Errorf("failed to scan public user: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating public users: %w", err)
	}
	return out, nil
}

// ListExcept retrieves every user except the given one
func (r *UserRepository) ListExcept(ctx context.Context, id string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id <> $1 ORDER BY u.created_at`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateProfile updates only the supplied profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	query := `
		UPDATE users SET
			bio = COALESCE($2, bio),
			gender = COALESCE($3, gender),
			profile_picture = COALESCE($4, profile_picture),
			updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, update.Bio, update.Gender, update.ProfilePicture, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ToggleFollow removes the follow edge if present, otherwise creates it.
// A single follows row backs both the follower's following list and the
// followee's followers list, so both sides change together.
func (r *UserRepository) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	var following bool
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE id = $1 OR id = $2`, followerID, followeeID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check users: %w", err)
		}
		if count != 2 {
			return repository.ErrNotFound
		}

		result, err := tx.Exec(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete follow: %w", err)
		}
		if result.RowsAffected() > 0 {
			following = false
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO follows (follower_id, followee_id, created_at) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, followerID, followeeID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert follow: %w", err)
		}
		following = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// ToggleBookmark removes the bookmark if present, otherwise creates it
func (r *UserRepository) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	var saved bool
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`, userID, postID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete bookmark: %w", err)
		}
		if result.RowsAffected() > 0 {
			saved = false
			return nil
		}

		result, err = tx.Exec(ctx, `
			INSERT INTO bookmarks (user_id, post_id, created_at)
			SELECT $1, p.id, $3 FROM posts p WHERE p.id = $2
			ON CONFLICT DO NOTHING`, userID, postID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bookmark: %w", err)
		}
		if result.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		saved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FullName, &user.Username, &user.Email, &user.PasswordHash,
		&user.Bio, &user.Gender, &user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt,
		&user.Posts, &user.Followers, &user.Following, &user.Bookmarks,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
