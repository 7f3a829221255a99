package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"snapgram-backend/internal/middleware"
	"snapgram-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postService *services.PostService
	maxUpload   int64
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService, maxUpload int64) *PostHandler {
	return &PostHandler{
		postService: postService,
		maxUpload:   maxUpload,
	}
}

// CommentRequest represents the request body for adding a comment
type CommentRequest struct {
	Text string `json:"text"`
}

// AddPost handles POST /api/v1/post/addpost (multipart: caption, image)
func (h *PostHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, err := optionalFile(r, "image")
	if err != nil {
		respondFormError(w, err)
		return
	}

	var image io.Reader
	if file != nil {
		defer file.Close()
		image = file
	}

	post, err := h.postService.CreatePost(ctx, userID, r.FormValue("caption"), image)
	if err != nil {
		logFailure(err, userID, "Failed to create post")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", post.ID).
		Msg("Post created")

	respondSuccess(w, http.StatusCreated, "Post has been Uploaded", map[string]interface{}{"post": post})
}

// GetAllPosts handles GET /api/v1/post/all
func (h *PostHandler) GetAllPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := h.postService.ListPosts(ctx)
	if err != nil {
		logFailure(err, middleware.GetUserID(ctx), "Failed to list posts")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"posts": posts})
}

// GetUserPosts handles GET /api/v1/post/userpost/all
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	posts, err := h.postService.ListUserPosts(ctx, userID)
	if err != nil {
		logFailure(err, userID, "Failed to list user posts")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"posts": posts})
}

// LikePost handles POST /api/v1/post/like/{id}
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "id")

	if err := h.postService.LikePost(ctx, postID, userID); err != nil {
		logFailure(err, userID, "Failed to like post")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Post liked", nil)
}

// DislikePost handles POST /api/v1/post/dislike/{id}
func (h *PostHandler) DislikePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "id")

	if err := h.postService.DislikePost(ctx, postID, userID); err != nil {
		logFailure(err, userID, "Failed to dislike post")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Post disliked", nil)
}

// AddComment handles POST /api/v1/post/comment/{id}
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "id")

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.postService.AddComment(ctx, postID, userID, req.Text)
	if err != nil {
		logFailure(err, userID, "Failed to add comment")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", postID).
		Str("comment_id", comment.ID).
		Msg("Comment added")

	respondSuccess(w, http.StatusCreated, "Comment added", map[string]interface{}{"comment": comment})
}

// GetComments handles GET /api/v1/post/getcomments/{id}
func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID := chi.URLParam(r, "id")

	comments, err := h.postService.GetComments(ctx, postID)
	if err != nil {
		logFailure(err, middleware.GetUserID(ctx), "Failed to get comments")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"comments": comments})
}

// DeletePost handles DELETE /api/v1/post/delete/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "id")

	if err := h.postService.DeletePost(ctx, postID, userID); err != nil {
		logFailure(err, userID, "Failed to delete post")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", postID).
		Msg("Post deleted")

	respondSuccess(w, http.StatusOK, "Post deleted", nil)
}

// BookmarkPost handles POST /api/v1/post/bookmark/{id}
func (h *PostHandler) BookmarkPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "id")

	saved, err := h.postService.ToggleBookmark(ctx, postID, userID)
	if err != nil {
		logFailure(err, userID, "Failed to toggle bookmark")
		respondServiceError(w, err)
		return
	}

	if saved {
		respondSuccess(w, http.StatusOK, "Post added to bookmarks", map[string]interface{}{"type": "saved"})
		return
	}
	respondSuccess(w, http.StatusOK, "Post removed from bookmarks", map[string]interface{}{"type": "unsaved"})
}
