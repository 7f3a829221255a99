// Package memory keeps every record in process memory. It backs the test suite
// and the "memory" database driver for local runs.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"
)

// Store holds users, posts and comments behind a single lock. Every repository
// method takes the lock for its whole mutation.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	posts    map[string]*models.Post
	comments map[string]*models.Comment
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

// Posts returns the post repository view of the store
func (s *Store) Posts() repository.PostRepository { return &postRepository{s} }

// Comments returns the comment repository view of the store
func (s *Store) Comments() repository.CommentRepository { return &commentRepository{s} }

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetPublic(_ context.Context, ids []string) (map[string]models.PublicUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]models.PublicUser, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u.Public()
		}
	}
	return out, nil
}

func (r *userRepository) ListExcept(_ context.Context, id string) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.ID != id {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepository) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Gender != nil {
		u.Gender = *update.Gender
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = *update.ProfilePicture
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepository) ToggleFollow(_ context.Context, followerID, followeeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	follower, ok := r.s.users[followerID]
	if !ok {
		return false, repository.ErrNotFound
	}
	followee, ok := r.s.users[followeeID]
	if !ok {
		return false, repository.ErrNotFound
	}

	if slices.Contains(follower.Following, followeeID) {
		follower.Following = remove(follower.Following, followeeID)
		followee.Followers = remove(followee.Followers, followerID)
		return false, nil
	}
	follower.Following = addToSet(follower.Following, followeeID)
	followee.Followers = addToSet(followee.Followers, followerID)
	return true, nil
}

func (r *userRepository) ToggleBookmark(_ context.Context, userID, postID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if slices.Contains(u.Bookmarks, postID) {
		u.Bookmarks = remove(u.Bookmarks, postID)
		return false, nil
	}
	u.Bookmarks = addToSet(u.Bookmarks, postID)
	return true, nil
}

type postRepository struct{ s *Store }

func (r *postRepository) Create(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	author, ok := r.s.users[post.AuthorID]
	if !ok {
		return repository.ErrNotFound
	}
	r.s.posts[post.ID] = clonePost(post)
	author.Posts = append(author.Posts, post.ID)
	return nil
}

func (r *postRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *postRepository) List(_ context.Context) ([]*models.Post, error) {
	return r.filter(func(*models.Post) bool { return true }), nil
}

func (r *postRepository) ListByAuthor(_ context.Context, authorID string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *postRepository) filter(keep func(*models.Post) bool) []*models.Post {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]*models.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if keep(p) {
			posts = append(posts, clonePost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

func (r *postRepository) AddLike(_ context.Context, postID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Likes = addToSet(p.Likes, userID)
	return nil
}

func (r *postRepository) RemoveLike(_ context.Context, postID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Likes = remove(p.Likes, userID)
	return nil
}

func (r *postRepository) Delete(_ context.Context, postID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.posts, postID)
	if owner, ok := r.s.users[p.AuthorID]; ok {
		owner.Posts = remove(owner.Posts, postID)
	}
	for _, u := range r.s.users {
		u.Bookmarks = remove(u.Bookmarks, postID)
	}
	for id, c := range r.s.comments {
		if c.PostID == postID {
			delete(r.s.comments, id)
		}
	}
	return nil
}

type commentRepository struct{ s *Store }

func (r *commentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[comment.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	c := *comment
	r.s.comments[c.ID] = &c
	p.Comments = append(p.Comments, c.ID)
	return nil
}

func (r *commentRepository) ListByPosts(_ context.Context, postIDs []string) ([]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := make([]*models.Comment, 0)
	for _, c := range r.s.comments {
		if slices.Contains(postIDs, c.PostID) {
			cc := *c
			comments = append(comments, &cc)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments, nil
}

func addToSet(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Posts = slices.Clone(u.Posts)
	c.Followers = slices.Clone(u.Followers)
	c.Following = slices.Clone(u.Following)
	c.Bookmarks = slices.Clone(u.Bookmarks)
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = slices.Clone(p.Likes)
	c.Comments = slices.Clone(p.Comments)
	return &c
}
