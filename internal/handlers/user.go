package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"snapgram-backend/internal/middleware"
	"snapgram-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CookieOptions controls the attributes of the session cookie
type CookieOptions struct {
	Secure bool
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
	cookie      CookieOptions
	maxUpload   int64
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, cookie CookieOptions, maxUpload int64) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookie:      cookie,
		maxUpload:   maxUpload,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/v1/user/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Signup(ctx, req)
	if err != nil {
		logFailure(err, "", "Failed to sign up")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("User created")

	respondSuccess(w, http.StatusCreated, "User created successfully", nil)
}

// Login handles POST /api/v1/user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, session, err := h.userService.Login(ctx, req.Username, req.Password)
	if err != nil {
		logFailure(err, "", "Failed to log in")
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(services.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info().Str("user_id", user.ID).Msg("User logged in")

	respondSuccess(w, http.StatusOK, fmt.Sprintf("Welcome back, %s!", user.Username), map[string]interface{}{
		"user": user,
	})
}

// Logout handles POST /api/v1/user/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondSuccess(w, http.StatusOK, "You have been logged out successfully", nil)
}

// GetProfile handles GET /api/v1/user/{id}/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")

	user, err := h.userService.GetProfile(ctx, profileID)
	if err != nil {
		logFailure(err, middleware.GetUserID(ctx), "Failed to get profile")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"user": user})
}

// EditProfile handles POST /api/v1/user/profile/edit (multipart: bio, gender, profilePicture)
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	picture, err := optionalFile(r, "profilePicture")
	if err != nil {
		respondFormError(w, err)
		return
	}

	in := services.EditProfileInput{
		Bio:    optionalValue(r, "bio"),
		Gender: optionalValue(r, "gender"),
	}
	if picture != nil {
		defer picture.Close()
		in.Picture = picture
	}

	user, err := h.userService.EditProfile(ctx, userID, in)
	if err != nil {
		logFailure(err, userID, "Failed to edit profile")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")

	respondSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": user})
}

// SuggestedUsers handles GET /api/v1/user/suggested
func (h *UserHandler) SuggestedUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	users, err := h.userService.SuggestedUsers(ctx, userID)
	if err != nil {
		logFailure(err, userID, "Failed to get suggested users")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"users": users})
}

// FollowOrUnfollow handles POST /api/v1/user/connections/{id}
func (h *UserHandler) FollowOrUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "id")

	following, err := h.userService.ToggleFollow(ctx, userID, targetID)
	if err != nil {
		logFailure(err, userID, "Failed to follow or unfollow")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("target_id", targetID).
		Bool("following", following).
		Msg("Follow toggled")

	message := "Unfollowed successfully"
	if following {
		message = "Followed successfully"
	}
	respondSuccess(w, http.StatusOK, message, nil)
}

// optionalFile parses the multipart form and returns the uploaded file for
// field, or nil when none was sent.
func optionalFile(r *http.Request, field string) (io.ReadCloser, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return file, nil
}

// respondFormError answers a failed form parse, separating oversized uploads
func respondFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, "Upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	respondError(w, "Invalid form data", http.StatusBadRequest)
}

// optionalValue returns a pointer to the trimmed form value, or nil when empty
func optionalValue(r *http.Request, field string) *string {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	return &v
}

// logFailure logs client errors at warn and everything else at error
func logFailure(err error, userID, msg string) {
	event := log.Error()
	if statusOf(err) < http.StatusInternalServerError {
		event = log.Warn()
	}
	if userID != "" {
		event = event.Str("user_id", userID)
	}
	event.Err(err).Msg(msg)
}
