package services

import "errors"

// User-facing errors. The text of each is the message returned to clients;
// handlers map them to status codes.
var (
	ErrMissingFields      = errors.New("Please make sure to fill all the fields!")
	ErrEmailTaken         = errors.New("This email is already associated with another account!")
	ErrUsernameTaken      = errors.New("This username is not available!")
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrUnauthenticated    = errors.New("User not authenticated")
	ErrUserNotFound       = errors.New("User not found")
	ErrSelfFollow         = errors.New("You can't follow/unfollow yourself")

	ErrImageRequired = errors.New("Source Required")
	ErrTextRequired  = errors.New("text is required")
	ErrPostNotFound  = errors.New("Post not found")
	ErrNotPostAuthor = errors.New("Unauthorized Access")

	ErrUpload  = errors.New("Failed to process image")
	ErrStorage = errors.New("Failed to store image")
)
