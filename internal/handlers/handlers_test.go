package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"snapgram-backend/internal/middleware"
	"snapgram-backend/internal/repository/memory"
	"snapgram-backend/internal/services"
	"snapgram-backend/internal/storage"

	"github.com/stretchr/testify/require"
)

const (
	testMaxUpload = 2 << 20
	testMaxPixels = 4_000_000
)

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repos := memory.NewStore()
	store := storage.NewMemoryStore("http://media.test")
	media := services.NewMediaService(store, 800, 80, testMaxPixels)
	userService := services.NewUserService(repos.Users(), media, "handler-secret")
	postService := services.NewPostService(repos.Posts(), repos.Comments(), repos.Users(), media)

	router := NewRouter(
		userService,
		NewUserHandler(userService, CookieOptions{}, testMaxUpload),
		NewPostHandler(postService, testMaxUpload),
		RouterOptions{CORSOrigin: "http://localhost:5173", Media: store},
	)
	return &testServer{t: t, router: router, store: store}
}

type response struct {
	status  int
	body    map[string]interface{}
	cookies []*http.Cookie
}

func (s *testServer) do(req *http.Request, session *http.Cookie) response {
	s.t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	res := response{status: rec.Code, cookies: rec.Result().Cookies()}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}

func (s *testServer) doJSON(method, path string, payload interface{}, session *http.Cookie) response {
	s.t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, session)
}

func (s *testServer) doMultipart(path string, fields map[string]string, fileField string, file []byte, session *http.Cookie) response {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(fileField, "upload.png")
		require.NoError(s.t, err)
		_, err = fw.Write(file)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, session)
}

// register signs up and logs in, returning the session cookie and user id
func (s *testServer) register(username string) (*http.Cookie, string) {
	s.t.Helper()
	res := s.doJSON(http.MethodPost, "/api/v1/user/signup", map[string]string{
		"fullname": username + " full",
		"username": username,
		"email":    username + "@example.com",
		"password": "pw-" + username,
	}, nil)
	require.Equal(s.t, http.StatusCreated, res.status, res.body)

	res = s.doJSON(http.MethodPost, "/api/v1/user/login", map[string]string{
		"username": username,
		"password": "pw-" + username,
	}, nil)
	require.Equal(s.t, http.StatusOK, res.status, res.body)

	cookie := sessionCookie(res)
	require.NotNil(s.t, cookie)
	user := res.body["user"].(map[string]interface{})
	return &http.Cookie{Name: cookie.Name, Value: cookie.Value}, user["id"].(string)
}

func sessionCookie(res response) *http.Cookie {
	for _, c := range res.cookies {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}
