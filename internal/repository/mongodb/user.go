package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepository handles document operations for users
type UserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, users: db.Collection(usersCollection)}
}

// Create inserts a new user document
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	doc := *user
	doc.Posts = nonNil(doc.Posts)
	doc.Followers = nonNil(doc.Followers)
	doc.Following = nonNil(doc.Following)
	doc.Bookmarks = nonNil(doc.Bookmarks)

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "index: email_unique") {
				return repository.ErrDuplicateEmail
			}
			return repository.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, byID(id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetPublic resolves public fields for a set of user IDs
func (r *UserRepository) GetPublic(ctx context.Context, ids []string) (map[string]models.PublicUser, error) {
	out := make(map[string]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.D{{Key: "username", Value: 1}, {Key: "profile_picture", Value: 1}})
	cursor, err := r.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get public users: %w", err)
	}

	var users []models.PublicUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode public users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// ListExcept retrieves every user except the given one
func (r *UserRepository) ListExcept(ctx context.Context, id string) ([]*models.User, error) {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: id}}}}
	cursor, err := r.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// UpdateProfile sets only the supplied profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if update.Bio != nil {
		set = append(set, bson.E{Key: "bio", Value: *update.Bio})
	}
	if update.Gender != nil {
		set = append(set, bson.E{Key: "gender", Value: *update.Gender})
	}
	if update.ProfilePicture != nil {
		set = append(set, bson.E{Key: "profile_picture", Value: *update.ProfilePicture})
	}

	result, err := r.users.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ToggleFollow flips the follow edge on both user documents in one transaction
func (r *UserRepository) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	var following bool
	err := withTransaction(ctx, r.db, func(ctx context.Context) error {
		follower, err := r.findOne(ctx, byID(followerID))
		if err != nil {
			return err
		}
		n, err := r.users.CountDocuments(ctx, byID(followeeID))
		if err != nil {
			return fmt.Errorf("failed to check followee: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}

		op := "$addToSet"
		following = true
		if follower.IsFollowing(followeeID) {
			op = "$pull"
			following = false
		}

		if _, err := r.users.UpdateOne(ctx, byID(followerID),
			bson.D{{Key: op, Value: bson.D{{Key: "following", Value: followeeID}}}}); err != nil {
			return fmt.Errorf("failed to update following: %w", err)
		}
		if _, err := r.users.UpdateOne(ctx, byID(followeeID),
			bson.D{{Key: op, Value: bson.D{{Key: "followers", Value: followerID}}}}); err != nil {
			return fmt.Errorf("failed to update followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// ToggleBookmark adds postID when it is absent from the bookmark set, otherwise
// pulls it. The add is conditional on absence, so it cannot race a second add.
func (r *UserRepository) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "bookmarks", Value: bson.D{{Key: "$ne", Value: postID}}},
	}
	added, err := r.users.UpdateOne(ctx, filter,
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "bookmarks", Value: postID}}}})
	if err != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}
	if added.MatchedCount == 1 {
		return true, nil
	}

	pulled, err := r.users.UpdateOne(ctx, byID(userID),
		bson.D{{Key: "$pull", Value: bson.D{{Key: "bookmarks", Value: postID}}}})
	if err != nil {
		return false, fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if pulled.MatchedCount == 0 {
		return false, repository.ErrNotFound
	}
	return false, nil
}
