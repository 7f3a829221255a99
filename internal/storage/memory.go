package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Object is a stored blob and its content type
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps objects in process memory. It backs the memory database
// driver when no bucket is configured, and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemoryStore creates an empty store whose URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Put reads body fully and stores it under key
func (s *MemoryStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}

	key = strings.TrimLeft(key, "/")
	s.mu.Lock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
	s.mu.Unlock()

	return s.baseURL + "/" + key, nil
}

// Get returns the object stored under key
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[strings.TrimLeft(key, "/")]
	return obj, ok
}

// Keys returns the keys of every stored object
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// ServeHTTP serves the object named by the request path
func (s *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.Get(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

var _ ObjectStore = (*MemoryStore)(nil)
