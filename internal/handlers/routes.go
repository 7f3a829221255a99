package handlers

import (
	"net/http"

	"snapgram-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	CORSOrigin string
	// RequestLogging enables chi's request logger
	RequestLogging bool
	// Media, when set, serves stored uploads under /media/
	Media http.Handler
}

// NewRouter builds the HTTP API. auth guards every route except signup,
// login, logout and the health check.
func NewRouter(auth middleware.TokenValidator, users *UserHandler, posts *PostHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if opts.RequestLogging {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigin))

	r.Get("/", Health)
	if opts.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media", opts.Media))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", users.Signup)
			r.Post("/login", users.Login)
			r.Post("/logout", users.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(auth))
				r.Get("/{id}/profile", users.GetProfile)
				r.Post("/profile/edit", users.EditProfile)
				r.Get("/suggested", users.SuggestedUsers)
				r.Post("/connections/{id}", users.FollowOrUnfollow)
			})
		})

		r.Route("/post", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(auth))
			r.Post("/addpost", posts.AddPost)
			r.Get("/all", posts.GetAllPosts)
			r.Get("/userpost/all", posts.GetUserPosts)
			r.Post("/like/{id}", posts.LikePost)
			r.Post("/dislike/{id}", posts.DislikePost)
			r.Post("/comment/{id}", posts.AddComment)
			r.Get("/getcomments/{id}", posts.GetComments)
			r.Delete("/delete/{id}", posts.DeletePost)
			r.Post("/bookmark/{id}", posts.BookmarkPost)
		})
	})

	return r
}

// Health handles GET /
func Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "Server is running", nil)
}
