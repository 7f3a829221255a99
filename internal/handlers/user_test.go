package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snapgram-backend/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	res := srv.doJSON(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, true, res.body["success"])
}

func TestSignup(t *testing.T) {
	srv := newTestServer(t)

	res := srv.doJSON(http.MethodPost, "/api/v1/user/signup", map[string]string{
		"fullname": "Ada Lovelace",
		"username": "ada",
		"email":    "ada@example.com",
		"password": "secret",
	}, nil)
	assert.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, true, res.body["success"])
	assert.Equal(t, "User created successfully", res.body["message"])

	res = srv.doJSON(http.MethodPost, "/api/v1/user/signup", map[string]string{
		"fullname": "Ada Again",
		"username": "ada2",
		"email":    "ada@example.com",
		"password": "secret",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, false, res.body["success"])
	assert.Equal(t, "This email is already associated with another account!", res.body["message"])

	res = srv.doJSON(http.MethodPost, "/api/v1/user/signup", map[string]string{"username": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Please make sure to fill all the fields!", res.body["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/signup", strings.NewReader("{"))
	res = srv.do(req, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid request body", res.body["message"])
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	srv.register("ada")

	res := srv.doJSON(http.MethodPost, "/api/v1/user/login", map[string]string{
		"username": "ada",
		"password": "pw-ada",
	}, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Welcome back, ada!", res.body["message"])

	user := res.body["user"].(map[string]interface{})
	assert.Equal(t, "ada", user["username"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "PasswordHash")

	cookie := sessionCookie(res)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3*60*60, cookie.MaxAge)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("handler-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims["user_id"])
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, exp.Sub(iat.Time))
}

func TestLogin_Failures(t *testing.T) {
	srv := newTestServer(t)
	srv.register("ada")

	for _, creds := range []map[string]string{
		{"username": "ada", "password": "wrong"},
		{"username": "nobody", "password": "wrong"},
	} {
		res := srv.doJSON(http.MethodPost, "/api/v1/user/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Equal(t, "Incorrect username or password", res.body["message"])
		assert.Nil(t, sessionCookie(res))
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	srv := newTestServer(t)

	res := srv.doJSON(http.MethodPost, "/api/v1/user/logout", nil, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "You have been logged out successfully", res.body["message"])

	cookie := sessionCookie(res)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/someone/profile"},
		{http.MethodPost, "/api/v1/user/profile/edit"},
		{http.MethodGet, "/api/v1/user/suggested"},
		{http.MethodPost, "/api/v1/user/connections/someone"},
		{http.MethodPost, "/api/v1/post/addpost"},
		{http.MethodGet, "/api/v1/post/all"},
		{http.MethodGet, "/api/v1/post/userpost/all"},
		{http.MethodPost, "/api/v1/post/like/p"},
		{http.MethodPost, "/api/v1/post/dislike/p"},
		{http.MethodPost, "/api/v1/post/comment/p"},
		{http.MethodGet, "/api/v1/post/getcomments/p"},
		{http.MethodDelete, "/api/v1/post/delete/p"},
		{http.MethodPost, "/api/v1/post/bookmark/p"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			res := srv.doJSON(route.method, route.path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, res.status)
			assert.Equal(t, "User not authenticated", res.body["message"])

			res = srv.doJSON(route.method, route.path, nil, &http.Cookie{Name: middleware.SessionCookieName, Value: "forged"})
			assert.Equal(t, http.StatusUnauthorized, res.status)
			assert.Equal(t, "Invalid token", res.body["message"])
		})
	}
}

func TestGetProfile(t *testing.T) {
	srv := newTestServer(t)
	session, _ := srv.register("ada")
	_, graceID := srv.register("grace")

	res := srv.doJSON(http.MethodGet, "/api/v1/user/"+graceID+"/profile", nil, session)
	require.Equal(t, http.StatusOK, res.status)
	user := res.body["user"].(map[string]interface{})
	assert.Equal(t, "grace", user["username"])
	assert.Equal(t, "grace full", user["fullname"])

	res = srv.doJSON(http.MethodGet, "/api/v1/user/missing/profile", nil, session)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "User not found", res.body["message"])
}

func TestEditProfile(t *testing.T) {
	srv := newTestServer(t)
	session, adaID := srv.register("ada")

	res := srv.doMultipart("/api/v1/user/profile/edit", map[string]string{
		"bio":    "hello there",
		"gender": "female",
	}, "profilePicture", testPNG(t, 900, 300), session)
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, "Profile updated successfully", res.body["message"])

	user := res.body["user"].(map[string]interface{})
	assert.Equal(t, "hello there", user["bio"])
	assert.Equal(t, "female", user["gender"])
	picture := user["profile_picture"].(string)
	assert.True(t, strings.HasPrefix(picture, "http://media.test/profiles/"+adaID+"/"))

	// stored picture is served back through the media route
	req := httptest.NewRequest(http.MethodGet, "/media"+strings.TrimPrefix(picture, "http://media.test"), nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	// fields left empty are kept
	res = srv.doMultipart("/api/v1/user/profile/edit", map[string]string{"bio": "changed"}, "", nil, session)
	require.Equal(t, http.StatusOK, res.status, res.body)
	user = res.body["user"].(map[string]interface{})
	assert.Equal(t, "changed", user["bio"])
	assert.Equal(t, "female", user["gender"])
	assert.Equal(t, picture, user["profile_picture"])
}

func TestEditProfile_BadPicture(t *testing.T) {
	srv := newTestServer(t)
	session, _ := srv.register("ada")

	res := srv.doMultipart("/api/v1/user/profile/edit", map[string]string{"bio": "x"}, "profilePicture", []byte("not an image"), session)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Failed to process image", res.body["message"])
}

func TestSuggestedUsers(t *testing.T) {
	srv := newTestServer(t)
	session, adaID := srv.register("ada")
	srv.register("grace")

	res := srv.doJSON(http.MethodGet, "/api/v1/user/suggested", nil, session)
	require.Equal(t, http.StatusOK, res.status)
	users := res.body["users"].([]interface{})
	require.Len(t, users, 1)
	user := users[0].(map[string]interface{})
	assert.Equal(t, "grace", user["username"])
	assert.NotEqual(t, adaID, user["id"])
}

func TestFollowOrUnfollow(t *testing.T) {
	srv := newTestServer(t)
	session, adaID := srv.register("ada")
	_, graceID := srv.register("grace")

	res := srv.doJSON(http.MethodPost, "/api/v1/user/connections/"+graceID, nil, session)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Followed successfully", res.body["message"])

	res = srv.doJSON(http.MethodGet, "/api/v1/user/"+graceID+"/profile", nil, session)
	followers := res.body["user"].(map[string]interface{})["followers"].([]interface{})
	assert.Equal(t, []interface{}{adaID}, followers)

	res = srv.doJSON(http.MethodPost, "/api/v1/user/connections/"+graceID, nil, session)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Unfollowed successfully", res.body["message"])

	res = srv.doJSON(http.MethodPost, "/api/v1/user/connections/"+adaID, nil, session)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "You can't follow/unfollow yourself", res.body["message"])

	res = srv.doJSON(http.MethodPost, "/api/v1/user/connections/missing", nil, session)
	assert.Equal(t, http.StatusNotFound, res.status)
}
