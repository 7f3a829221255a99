package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is the lifetime of a session token and of the cookie carrying it
const SessionTTL = 3 * time.Hour

// Session is a signed session token and the identity it encodes
type Session struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SignupInput represents the fields required to register
type SignupInput struct {
	FullName string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EditProfileInput carries the profile fields to change. Nil fields are left
// untouched; Picture is uploaded through the media service when set.
type EditProfileInput struct {
	Bio     *string
	Gender  *string
	Picture io.Reader
}

// UserService handles user-related business logic
type UserService struct {
	userRepo  repository.UserRepository
	media     ImageUploader
	jwtSecret string
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, media ImageUploader, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		media:     media,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// Signup registers a new user with a bcrypt-hashed password
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Posts:        []string{},
		Followers:    []string{},
		Following:    []string{},
		Bookmarks:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return sanitizeUser(user), nil
}

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return hash
})

// Login verifies the credentials and issues a session. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, *Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, ErrMissingFields
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return sanitizeUser(user), session, nil
}

// GenerateJWT generates a session token for a user
func (s *UserService) GenerateJWT(userID string) (*Session, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(SessionTTL)

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		Token:     tokenString,
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseJWT validates signature and expiry and returns the session it encodes
func (s *UserService) ParseJWT(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("user_id not found in token")
	}

	session := &Session{Token: tokenString, UserID: userID}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = iat.Time
	}
	return session, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	session, err := s.ParseJWT(tokenString)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// GetProfile returns a user without the password hash
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return sanitizeUser(user), nil
}

// EditProfile updates the supplied profile fields and returns the updated user
func (s *UserService) EditProfile(ctx context.Context, userID string, in EditProfileInput) (*models.User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{Bio: in.Bio, Gender: in.Gender}
	if in.Picture != nil {
		url, err := s.media.UploadImage(ctx, in.Picture, "profiles/"+userID)
		if err != nil {
			return nil, err
		}
		update.ProfilePicture = &url
	}

	if !update.Empty() {
		if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.GetProfile(ctx, userID)
}

// SuggestedUsers returns every user except the caller
func (s *UserService) SuggestedUsers(ctx context.Context, userID string) ([]*models.User, error) {
	users, err := s.userRepo.ListExcept(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i] = sanitizeUser(users[i])
	}
	return users, nil
}

// ToggleFollow follows targetID when the caller does not follow them yet and
// unfollows otherwise. It reports whether the caller follows the target afterwards.
func (s *UserService) ToggleFollow(ctx context.Context, userID, targetID string) (bool, error) {
	if userID == targetID {
		return false, ErrSelfFollow
	}

	following, err := s.userRepo.ToggleFollow(ctx, userID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}
	return following, nil
}

func sanitizeUser(user *models.User) *models.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
