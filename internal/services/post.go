package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/google/uuid"
)

// PostService handles post, like, comment and bookmark logic
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	media       ImageUploader
	now         func() time.Time
}

// NewPostService creates a new post service
func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	media ImageUploader,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		media:       media,
		now:         time.Now,
	}
}

// CreatePost uploads the image and stores a new post owned by authorID.
// The author is looked up before anything is uploaded.
func (s *PostService) CreatePost(ctx context.Context, authorID, caption string, image io.Reader) (*models.PostView, error) {
	if image == nil {
		return nil, ErrImageRequired
	}
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}

	url, err := s.media.UploadImage(ctx, image, "posts/"+authorID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        uuid.New().String(),
		Caption:   strings.TrimSpace(caption),
		ImageURL:  url,
		AuthorID:  authorID,
		Likes:     []string{},
		Comments:  []string{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	views, err := s.buildViews(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListPosts returns every post, newest first, with authors and comments resolved
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.buildViews(ctx, posts)
}

// ListUserPosts returns the posts authored by userID, newest first
func (s *PostService) ListUserPosts(ctx context.Context, userID string) ([]models.PostView, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user posts: %w", err)
	}
	return s.buildViews(ctx, posts)
}

// LikePost adds userID to the post's liker set. Liking twice is a no-op.
func (s *PostService) LikePost(ctx context.Context, postID, userID string) error {
	if err := s.postRepo.AddLike(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to like post: %w", err)
	}
	return nil
}

// DislikePost removes userID from the post's liker set
func (s *PostService) DislikePost(ctx context.Context, postID, userID string) error {
	if err := s.postRepo.RemoveLike(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to dislike post: %w", err)
	}
	return nil
}

// AddComment stores a comment by authorID on postID
func (s *PostService) AddComment(ctx context.Context, postID, authorID, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		Text:      text,
		AuthorID:  authorID,
		PostID:    postID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	authors, err := s.userRepo.GetPublic(ctx, []string{authorID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment author: %w", err)
	}
	view := commentView(comment, authors)
	return &view, nil
}

// GetComments returns the comments of a post, newest first
func (s *PostService) GetComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPosts(ctx, []string{postID})
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.userRepo.GetPublic(ctx, unique(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment authors: %w", err)
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c, authors))
	}
	return views, nil
}

// DeletePost removes a post owned by userID together with its comments
func (s *PostService) DeletePost(ctx context.Context, postID, userID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotPostAuthor
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// ToggleBookmark saves the post for userID, or removes it when already saved.
// It reports whether the post is saved afterwards.
func (s *PostService) ToggleBookmark(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return false, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return false, err
	}

	// the post may still vanish between the lookup and the toggle
	saved, err := s.userRepo.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrPostNotFound
		}
		return false, fmt.Errorf("failed to toggle bookmark: %w", err)
	}
	return saved, nil
}

func (s *PostService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}

func (s *PostService) getPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// buildViews resolves authors and comments for posts, keeping the posts' order.
// Comments come back from the repository newest first.
func (s *PostService) buildViews(ctx context.Context, posts []*models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]string, 0, len(posts))
	userIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.AuthorID)
	}

	comments, err := s.commentRepo.ListByPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	byPost := make(map[string][]*models.Comment, len(posts))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
		userIDs = append(userIDs, c.AuthorID)
	}

	authors, err := s.userRepo.GetPublic(ctx, unique(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authors: %w", err)
	}

	for _, p := range posts {
		cv := make([]models.CommentView, 0, len(byPost[p.ID]))
		for _, c := range byPost[p.ID] {
			cv = append(cv, commentView(c, authors))
		}
		likes := p.Likes
		if likes == nil {
			likes = []string{}
		}
		views = append(views, models.PostView{
			ID:        p.ID,
			Caption:   p.Caption,
			ImageURL:  p.ImageURL,
			Author:    author(p.AuthorID, authors),
			Likes:     likes,
			Comments:  cv,
			CreatedAt: p.CreatedAt,
		})
	}
	return views, nil
}

func commentView(c *models.Comment, authors map[string]models.PublicUser) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		Text:      c.Text,
		Author:    author(c.AuthorID, authors),
		PostID:    c.PostID,
		CreatedAt: c.CreatedAt,
	}
}

func author(id string, authors map[string]models.PublicUser) models.PublicUser {
	if a, ok := authors[id]; ok {
		return a
	}
	return models.PublicUser{ID: id}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
