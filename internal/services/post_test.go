package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")

	post, err := env.posts.CreatePost(ctx, ada.ID, "  sunset  ", bytes.NewReader(pngImage(t, 1600, 1200)))
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "sunset", post.Caption)
	assert.Equal(t, ada.ID, post.Author.ID)
	assert.Equal(t, "ada", post.Author.Username)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.True(t, strings.HasPrefix(post.ImageURL, "http://media.test/posts/"+ada.ID+"/"))
	assert.Equal(t, []string{post.ID}, env.user(t, ada.ID).Posts)
}

func TestCreatePost_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")

	_, err := env.posts.CreatePost(ctx, ada.ID, "no image", nil)
	assert.ErrorIs(t, err, ErrImageRequired)

	_, err = env.posts.CreatePost(ctx, ada.ID, "bad image", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrUpload)

	_, err = env.posts.CreatePost(ctx, "ghost", "no author", bytes.NewReader(pngImage(t, 8, 8)))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, env.store.Keys(), "nothing is uploaded for an unknown author")

	env.failing.setFail(true)
	_, err = env.posts.CreatePost(ctx, ada.ID, "bucket down", bytes.NewReader(pngImage(t, 8, 8)))
	assert.ErrorIs(t, err, ErrStorage)

	posts, err := env.posts.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, env.user(t, ada.ID).Posts)
}

func TestListPosts_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")

	first := env.createPost(t, ada.ID, "first")
	second := env.createPost(t, grace.ID, "second")
	third := env.createPost(t, ada.ID, "third")

	posts, err := env.posts.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, third.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)
	assert.Equal(t, first.ID, posts[2].ID)
	assert.Equal(t, "grace", posts[1].Author.Username)

	mine, err := env.posts.ListUserPosts(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
}

func TestLikeDislike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	post := env.createPost(t, ada.ID, "p")

	likes := func() []string {
		p, err := env.repos.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		return p.Likes
	}

	// disliking a post nobody liked leaves it unchanged
	require.NoError(t, env.posts.DislikePost(ctx, post.ID, grace.ID))
	assert.Empty(t, likes())

	require.NoError(t, env.posts.LikePost(ctx, post.ID, grace.ID))
	require.NoError(t, env.posts.LikePost(ctx, post.ID, grace.ID))
	assert.Equal(t, []string{grace.ID}, likes())

	require.NoError(t, env.posts.LikePost(ctx, post.ID, ada.ID))
	assert.ElementsMatch(t, []string{grace.ID, ada.ID}, likes())

	require.NoError(t, env.posts.DislikePost(ctx, post.ID, grace.ID))
	assert.Equal(t, []string{ada.ID}, likes())

	assert.ErrorIs(t, env.posts.LikePost(ctx, "missing", ada.ID), ErrPostNotFound)
	assert.ErrorIs(t, env.posts.DislikePost(ctx, "missing", ada.ID), ErrPostNotFound)
}

func TestLikePost_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	post := env.createPost(t, ada.ID, "p")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.posts.LikePost(ctx, post.ID, ada.ID))
		}()
	}
	wg.Wait()

	p, err := env.repos.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ada.ID}, p.Likes)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	post := env.createPost(t, ada.ID, "p")

	first, err := env.posts.AddComment(ctx, post.ID, grace.ID, " nice ")
	require.NoError(t, err)
	assert.Equal(t, "nice", first.Text)
	assert.Equal(t, "grace", first.Author.Username)
	assert.Equal(t, post.ID, first.PostID)

	second, err := env.posts.AddComment(ctx, post.ID, ada.ID, "thanks")
	require.NoError(t, err)

	comments, err := env.posts.GetComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)

	stored, err := env.repos.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, stored.Comments)

	posts, err := env.posts.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 2)
	assert.Equal(t, "ada", posts[0].Comments[0].Author.Username)
}

func TestAddComment_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	post := env.createPost(t, ada.ID, "p")

	_, err := env.posts.AddComment(ctx, post.ID, ada.ID, "   ")
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = env.posts.AddComment(ctx, "missing", ada.ID, "hello")
	assert.ErrorIs(t, err, ErrPostNotFound)

	comments, err := env.posts.GetComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = env.posts.GetComments(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	post := env.createPost(t, ada.ID, "p")
	keep := env.createPost(t, ada.ID, "keep")

	_, err := env.posts.AddComment(ctx, post.ID, grace.ID, "hi")
	require.NoError(t, err)
	_, err = env.posts.AddComment(ctx, keep.ID, grace.ID, "still here")
	require.NoError(t, err)
	saved, err := env.posts.ToggleBookmark(ctx, post.ID, grace.ID)
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, env.posts.DeletePost(ctx, post.ID, ada.ID))

	_, err = env.repos.Posts().GetByID(ctx, post.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{keep.ID}, env.user(t, ada.ID).Posts)
	assert.Empty(t, env.user(t, grace.ID).Bookmarks)

	comments, err := env.repos.Comments().ListByPosts(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Empty(t, comments)

	remaining, err := env.posts.GetComments(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assert.ErrorIs(t, env.posts.DeletePost(ctx, post.ID, ada.ID), ErrPostNotFound)
}

func TestDeletePost_NotAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	post := env.createPost(t, ada.ID, "p")
	_, err := env.posts.AddComment(ctx, post.ID, grace.ID, "mine now")
	require.NoError(t, err)

	err = env.posts.DeletePost(ctx, post.ID, grace.ID)
	assert.ErrorIs(t, err, ErrNotPostAuthor)

	_, err = env.repos.Posts().GetByID(ctx, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{post.ID}, env.user(t, ada.ID).Posts)
	comments, err := env.posts.GetComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestToggleBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	post := env.createPost(t, ada.ID, "p")

	saved, err := env.posts.ToggleBookmark(ctx, post.ID, grace.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{post.ID}, env.user(t, grace.ID).Bookmarks)

	saved, err = env.posts.ToggleBookmark(ctx, post.ID, grace.ID)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, env.user(t, grace.ID).Bookmarks)

	_, err = env.posts.ToggleBookmark(ctx, "missing", grace.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Empty(t, env.user(t, grace.ID).Bookmarks)

	_, err = env.posts.ToggleBookmark(ctx, post.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
