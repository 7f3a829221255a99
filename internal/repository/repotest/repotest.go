// Package repotest holds the behavior every repository backend must share.
// Backends run it from their own tests; records use fresh ids so one database
// can serve every subtest.
package repotest

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repos bundles one backend's repositories
type Repos struct {
	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
}

type fixture struct {
	Repos
	t    *testing.T
	ctx  context.Context
	base time.Time
	seq  int
}

// Run exercises repos against the shared repository contract
func Run(t *testing.T, repos Repos) {
	tests := []struct {
		name string
		fn   func(f *fixture)
	}{
		{"CreateAndGetUser", testCreateAndGetUser},
		{"DuplicateUser", testDuplicateUser},
		{"GetPublicAndListExcept", testGetPublicAndListExcept},
		{"UpdateProfile", testUpdateProfile},
		{"ToggleFollow", testToggleFollow},
		{"ToggleBookmark", testToggleBookmark},
		{"CreatePostAndList", testCreatePostAndList},
		{"Likes", testLikes},
		{"ConcurrentLikes", testConcurrentLikes},
		{"Comments", testComments},
		{"DeletePostCascades", testDeletePostCascades},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(&fixture{
				Repos: repos,
				t:     t,
				ctx:   context.Background(),
				// truncated to what every backend stores
				base: time.Now().UTC().Truncate(time.Millisecond),
			})
		})
	}
}

func (f *fixture) now() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Second)
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	id := uuid.New().String()
	now := f.now()
	user := &models.User{
		ID:           id,
		FullName:     name,
		Username:     name + "-" + id[:8],
		Email:        name + "-" + id[:8] + "@example.com",
		PasswordHash: "hash",
		Posts:        []string{},
		Followers:    []string{},
		Following:    []string{},
		Bookmarks:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(f.t, f.Users.Create(f.ctx, user))
	return user
}

func (f *fixture) post(authorID, caption string) *models.Post {
	f.t.Helper()
	post := &models.Post{
		ID:        uuid.New().String(),
		Caption:   caption,
		ImageURL:  "http://media.test/" + caption + ".jpg",
		AuthorID:  authorID,
		Likes:     []string{},
		Comments:  []string{},
		CreatedAt: f.now(),
	}
	require.NoError(f.t, f.Posts.Create(f.ctx, post))
	return post
}

func (f *fixture) comment(postID, authorID, text string) *models.Comment {
	f.t.Helper()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		Text:      text,
		AuthorID:  authorID,
		PostID:    postID,
		CreatedAt: f.now(),
	}
	require.NoError(f.t, f.Comments.Create(f.ctx, comment))
	return comment
}

func (f *fixture) getUser(id string) *models.User {
	f.t.Helper()
	user, err := f.Users.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return user
}

func (f *fixture) getPost(id string) *models.Post {
	f.t.Helper()
	post, err := f.Posts.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return post
}

func testCreateAndGetUser(f *fixture) {
	created := f.user("ada")

	byID := f.getUser(created.ID)
	assert.Equal(f.t, created.Username, byID.Username)
	assert.Equal(f.t, created.Email, byID.Email)
	assert.Equal(f.t, "hash", byID.PasswordHash)
	assert.True(f.t, created.CreatedAt.Equal(byID.CreatedAt))
	assert.Empty(f.t, byID.Posts)
	assert.Empty(f.t, byID.Followers)

	byName, err := f.Users.GetByUsername(f.ctx, created.Username)
	require.NoError(f.t, err)
	assert.Equal(f.t, created.ID, byName.ID)

	_, err = f.Users.GetByID(f.ctx, uuid.New().String())
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
	_, err = f.Users.GetByUsername(f.ctx, "nobody-"+uuid.New().String())
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
}

func testDuplicateUser(f *fixture) {
	existing := f.user("ada")

	dupEmail := &models.User{
		ID:        uuid.New().String(),
		Username:  "other-" + uuid.New().String()[:8],
		Email:     existing.Email,
		CreatedAt: f.now(),
		UpdatedAt: f.now(),
	}
	assert.ErrorIs(f.t, f.Users.Create(f.ctx, dupEmail), repository.ErrDuplicateEmail)

	dupName := &models.User{
		ID:        uuid.New().String(),
		Username:  existing.Username,
		Email:     "other-" + uuid.New().String()[:8] + "@example.com",
		CreatedAt: f.now(),
		UpdatedAt: f.now(),
	}
	assert.ErrorIs(f.t, f.Users.Create(f.ctx, dupName), repository.ErrDuplicateUsername)

	_, err := f.Users.GetByID(f.ctx, dupEmail.ID)
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
	_, err = f.Users.GetByID(f.ctx, dupName.ID)
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
}

func testGetPublicAndListExcept(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")

	public, err := f.Users.GetPublic(f.ctx, []string{ada.ID, grace.ID, uuid.New().String()})
	require.NoError(f.t, err)
	require.Len(f.t, public, 2)
	assert.Equal(f.t, ada.Username, public[ada.ID].Username)
	assert.Equal(f.t, grace.Username, public[grace.ID].Username)

	empty, err := f.Users.GetPublic(f.ctx, nil)
	require.NoError(f.t, err)
	assert.Empty(f.t, empty)

	others, err := f.Users.ListExcept(f.ctx, ada.ID)
	require.NoError(f.t, err)
	ids := make([]string, 0, len(others))
	for _, u := range others {
		ids = append(ids, u.ID)
	}
	assert.NotContains(f.t, ids, ada.ID)
	assert.Contains(f.t, ids, grace.ID)
}

func testUpdateProfile(f *fixture) {
	ada := f.user("ada")

	bio, picture := "hello", "http://media.test/p.jpg"
	require.NoError(f.t, f.Users.UpdateProfile(f.ctx, ada.ID, models.ProfileUpdate{Bio: &bio, ProfilePicture: &picture}))

	got := f.getUser(ada.ID)
	assert.Equal(f.t, bio, got.Bio)
	assert.Equal(f.t, picture, got.ProfilePicture)
	assert.Empty(f.t, got.Gender)

	gender := "female"
	require.NoError(f.t, f.Users.UpdateProfile(f.ctx, ada.ID, models.ProfileUpdate{Gender: &gender}))
	got = f.getUser(ada.ID)
	assert.Equal(f.t, bio, got.Bio)
	assert.Equal(f.t, gender, got.Gender)

	err := f.Users.UpdateProfile(f.ctx, uuid.New().String(), models.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
}

func testToggleFollow(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")

	following, err := f.Users.ToggleFollow(f.ctx, ada.ID, grace.ID)
	require.NoError(f.t, err)
	assert.True(f.t, following)
	assert.Equal(f.t, []string{grace.ID}, f.getUser(ada.ID).Following)
	assert.Equal(f.t, []string{ada.ID}, f.getUser(grace.ID).Followers)
	assert.Empty(f.t, f.getUser(ada.ID).Followers)

	following, err = f.Users.ToggleFollow(f.ctx, ada.ID, grace.ID)
	require.NoError(f.t, err)
	assert.False(f.t, following)
	assert.Empty(f.t, f.getUser(ada.ID).Following)
	assert.Empty(f.t, f.getUser(grace.ID).Followers)

	_, err = f.Users.ToggleFollow(f.ctx, ada.ID, uuid.New().String())
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
	assert.Empty(f.t, f.getUser(ada.ID).Following)
}

func testToggleBookmark(f *fixture) {
	ada := f.user("ada")
	post := f.post(ada.ID, "bookmarked")

	saved, err := f.Users.ToggleBookmark(f.ctx, ada.ID, post.ID)
	require.NoError(f.t, err)
	assert.True(f.t, saved)
	assert.Equal(f.t, []string{post.ID}, f.getUser(ada.ID).Bookmarks)

	saved, err = f.Users.ToggleBookmark(f.ctx, ada.ID, post.ID)
	require.NoError(f.t, err)
	assert.False(f.t, saved)
	assert.Empty(f.t, f.getUser(ada.ID).Bookmarks)
}

func testCreatePostAndList(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")
	first := f.post(ada.ID, "first")
	second := f.post(grace.ID, "second")
	third := f.post(ada.ID, "third")

	got := f.getPost(first.ID)
	assert.Equal(f.t, "first", got.Caption)
	assert.Equal(f.t, first.ImageURL, got.ImageURL)
	assert.Equal(f.t, ada.ID, got.AuthorID)
	assert.Empty(f.t, got.Likes)
	assert.Empty(f.t, got.Comments)

	assert.Equal(f.t, []string{first.ID, third.ID}, f.getUser(ada.ID).Posts)

	all, err := f.Posts.List(f.ctx)
	require.NoError(f.t, err)
	assert.Equal(f.t, []string{third.ID, second.ID, first.ID}, postIDs(all, first.ID, second.ID, third.ID))

	mine, err := f.Posts.ListByAuthor(f.ctx, ada.ID)
	require.NoError(f.t, err)
	assert.Equal(f.t, []string{third.ID, first.ID}, postIDs(mine))

	orphan := &models.Post{
		ID:        uuid.New().String(),
		ImageURL:  "http://media.test/x.jpg",
		AuthorID:  uuid.New().String(),
		CreatedAt: f.now(),
	}
	assert.ErrorIs(f.t, f.Posts.Create(f.ctx, orphan), repository.ErrNotFound)

	_, err = f.Posts.GetByID(f.ctx, orphan.ID)
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
}

func testLikes(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")
	post := f.post(ada.ID, "liked")

	require.NoError(f.t, f.Posts.RemoveLike(f.ctx, post.ID, grace.ID))
	assert.Empty(f.t, f.getPost(post.ID).Likes)

	require.NoError(f.t, f.Posts.AddLike(f.ctx, post.ID, grace.ID))
	require.NoError(f.t, f.Posts.AddLike(f.ctx, post.ID, grace.ID))
	assert.Equal(f.t, []string{grace.ID}, f.getPost(post.ID).Likes)

	require.NoError(f.t, f.Posts.AddLike(f.ctx, post.ID, ada.ID))
	assert.ElementsMatch(f.t, []string{grace.ID, ada.ID}, f.getPost(post.ID).Likes)

	require.NoError(f.t, f.Posts.RemoveLike(f.ctx, post.ID, grace.ID))
	assert.Equal(f.t, []string{ada.ID}, f.getPost(post.ID).Likes)

	missing := uuid.New().String()
	assert.ErrorIs(f.t, f.Posts.AddLike(f.ctx, missing, ada.ID), repository.ErrNotFound)
	assert.ErrorIs(f.t, f.Posts.RemoveLike(f.ctx, missing, ada.ID), repository.ErrNotFound)
}

func testConcurrentLikes(f *fixture) {
	ada := f.user("ada")
	post := f.post(ada.ID, "popular")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(f.t, f.Posts.AddLike(f.ctx, post.ID, ada.ID))
		}()
	}
	wg.Wait()

	assert.Equal(f.t, []string{ada.ID}, f.getPost(post.ID).Likes)
}

func testComments(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")
	post := f.post(ada.ID, "commented")
	other := f.post(grace.ID, "other")

	first := f.comment(post.ID, grace.ID, "first")
	second := f.comment(post.ID, ada.ID, "second")
	elsewhere := f.comment(other.ID, ada.ID, "elsewhere")

	assert.Equal(f.t, []string{first.ID, second.ID}, f.getPost(post.ID).Comments)

	comments, err := f.Comments.ListByPosts(f.ctx, []string{post.ID})
	require.NoError(f.t, err)
	require.Len(f.t, comments, 2)
	assert.Equal(f.t, second.ID, comments[0].ID)
	assert.Equal(f.t, first.ID, comments[1].ID)
	assert.Equal(f.t, "first", comments[1].Text)
	assert.Equal(f.t, grace.ID, comments[1].AuthorID)

	both, err := f.Comments.ListByPosts(f.ctx, []string{post.ID, other.ID})
	require.NoError(f.t, err)
	assert.Len(f.t, both, 3)
	assert.Equal(f.t, elsewhere.ID, both[0].ID)

	orphan := &models.Comment{
		ID:        uuid.New().String(),
		Text:      "lost",
		AuthorID:  ada.ID,
		PostID:    uuid.New().String(),
		CreatedAt: f.now(),
	}
	assert.ErrorIs(f.t, f.Comments.Create(f.ctx, orphan), repository.ErrNotFound)
}

func testDeletePostCascades(f *fixture) {
	ada := f.user("ada")
	grace := f.user("grace")
	post := f.post(ada.ID, "doomed")
	keep := f.post(ada.ID, "kept")
	f.comment(post.ID, grace.ID, "bye")
	kept := f.comment(keep.ID, grace.ID, "stays")
	require.NoError(f.t, f.Posts.AddLike(f.ctx, post.ID, grace.ID))
	_, err := f.Users.ToggleBookmark(f.ctx, grace.ID, post.ID)
	require.NoError(f.t, err)
	_, err = f.Users.ToggleBookmark(f.ctx, grace.ID, keep.ID)
	require.NoError(f.t, err)

	require.NoError(f.t, f.Posts.Delete(f.ctx, post.ID))

	_, err = f.Posts.GetByID(f.ctx, post.ID)
	assert.ErrorIs(f.t, err, repository.ErrNotFound)
	assert.Equal(f.t, []string{keep.ID}, f.getUser(ada.ID).Posts)
	assert.Equal(f.t, []string{keep.ID}, f.getUser(grace.ID).Bookmarks)

	comments, err := f.Comments.ListByPosts(f.ctx, []string{post.ID, keep.ID})
	require.NoError(f.t, err)
	require.Len(f.t, comments, 1)
	assert.Equal(f.t, kept.ID, comments[0].ID)

	assert.ErrorIs(f.t, f.Posts.Delete(f.ctx, post.ID), repository.ErrNotFound)
}

// postIDs returns the ids of posts in order, keeping only those in filter when
// it is non-empty
func postIDs(posts []*models.Post, filter ...string) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if len(filter) == 0 || slices.Contains(filter, p.ID) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
