package models

import (
	"slices"
	"time"
)

// User represents a registered account together with its social-graph edges
type User struct {
	ID             string    `json:"id" bson:"_id"`
	FullName       string    `json:"fullname" bson:"fullname"`
	Username       string    `json:"username" bson:"username"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password"`
	Bio            string    `json:"bio" bson:"bio"`
	Gender         string    `json:"gender" bson:"gender"`
	ProfilePicture string    `json:"profile_picture" bson:"profile_picture"`
	Posts          []string  `json:"posts" bson:"posts"`
	Followers      []string  `json:"followers" bson:"followers"`
	Following      []string  `json:"following" bson:"following"`
	Bookmarks      []string  `json:"bookmarks" bson:"bookmarks"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// PublicUser is the subset of user fields shown next to posts and comments
type PublicUser struct {
	ID             string `json:"id" bson:"_id"`
	Username       string `json:"username" bson:"username"`
	ProfilePicture string `json:"profile_picture" bson:"profile_picture"`
}

// Public returns the public projection of the user
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// IsFollowing reports whether the user follows targetID
func (u *User) IsFollowing(targetID string) bool {
	return slices.Contains(u.Following, targetID)
}

// HasBookmark reports whether postID is in the user's bookmark set
func (u *User) HasBookmark(postID string) bool {
	return slices.Contains(u.Bookmarks, postID)
}

// ProfileUpdate carries the profile fields to change; nil fields stay untouched
type ProfileUpdate struct {
	Bio            *string
	Gender         *string
	ProfilePicture *string
}

// Empty reports whether the update changes nothing
func (p ProfileUpdate) Empty() bool {
	return p.Bio == nil && p.Gender == nil && p.ProfilePicture == nil
}

// Post represents an image post
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	Caption   string    `json:"caption" bson:"caption"`
	ImageURL  string    `json:"image" bson:"image"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Likes     []string  `json:"likes" bson:"likes"`
	Comments  []string  `json:"comments" bson:"comments"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// LikedBy reports whether userID is in the post's liker set
func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	Text      string    `json:"text" bson:"text"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	PostID    string    `json:"post_id" bson:"post_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// CommentView is a comment with its author resolved
type CommentView struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Author    PublicUser `json:"author"`
	PostID    string     `json:"post_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// PostView is a post with its author and comments resolved
type PostView struct {
	ID        string        `json:"id"`
	Caption   string        `json:"caption"`
	ImageURL  string        `json:"image"`
	Author    PublicUser    `json:"author"`
	Likes     []string      `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"created_at"`
}
