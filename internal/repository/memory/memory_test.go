package memory

import (
	"testing"

	"snapgram-backend/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	store := NewStore()
	repotest.Run(t, repotest.Repos{
		Users:    store.Users(),
		Posts:    store.Posts(),
		Comments: store.Comments(),
	})
}
