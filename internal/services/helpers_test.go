package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"snapgram-backend/internal/models"
	"snapgram-backend/internal/repository/memory"
	"snapgram-backend/internal/storage"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// clock is a manually advanced time source. Every call moves it forward one
// millisecond so records created in sequence have distinct timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	users   *UserService
	posts   *PostService
	store   *storage.MemoryStore
	clock   *clock
	repos   *memory.Store
	failing *failingStore
}

// failingStore wraps an ObjectStore and fails Put while fail is set
type failingStore struct {
	storage.ObjectStore
	mu   sync.Mutex
	fail bool
}

func (f *failingStore) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *failingStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return "", errors.New("bucket unavailable")
	}
	return f.ObjectStore.Put(ctx, key, body, contentType)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := memory.NewStore()
	store := storage.NewMemoryStore("http://media.test")
	failing := &failingStore{ObjectStore: store}
	media := NewMediaService(failing, DefaultMaxDimension, DefaultJPEGQuality, DefaultMaxPixels)
	clk := newClock()

	users := NewUserService(repos.Users(), media, testSecret)
	users.now = clk.Now
	posts := NewPostService(repos.Posts(), repos.Comments(), repos.Users(), media)
	posts.now = clk.Now

	return &testEnv{
		users:   users,
		posts:   posts,
		store:   store,
		clock:   clk,
		repos:   repos,
		failing: failing,
	}
}

func (e *testEnv) signup(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.Signup(context.Background(), SignupInput{
		FullName: username + " full",
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPost(t *testing.T, authorID, caption string) *models.PostView {
	t.Helper()
	post, err := e.posts.CreatePost(context.Background(), authorID, caption, bytes.NewReader(pngImage(t, 32, 32)))
	require.NoError(t, err)
	return post
}

func (e *testEnv) user(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := e.repos.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
