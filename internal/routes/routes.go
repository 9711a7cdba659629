package routes

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/handlers"
	"github.com/AnshRaj112/pixora-backend/internal/metrics"
	"github.com/AnshRaj112/pixora-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Deps is everything the router needs to serve the API.
type Deps struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Posts    *handlers.PostHandler
	Messages *handlers.MessageHandler
	Health   http.HandlerFunc

	Sessions middleware.SessionValidator
	Finder   middleware.UserFinder

	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      logrus.FieldLogger

	AllowedOrigins  []string
	AllowedHost     string
	TrustProxy      bool
	Production      bool
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(d.Log, d.Metrics))
	r.Use(middleware.CORS(d.AllowedOrigins))
	if d.Production {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.HostCheck(d.AllowedHost))
		r.Use(middleware.NewIPLimiter(10, 30, d.TrustProxy).Middleware)
	}

	if d.Health != nil {
		r.Get("/health", d.Health)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		SetupRoutes(api, d)
	})
	return r
}

// SetupRoutes mounts the users, posts and messages APIs on r.
func SetupRoutes(r chi.Router, d Deps) {
	authn := middleware.Authenticate(d.Sessions, d.Finder, d.Log)
	limited := middleware.RateLimit(d.Redis, middleware.RateLimitConfig{
		Name:       "auth",
		Max:        d.RateLimitMax,
		Window:     d.RateLimitWindow,
		TrustProxy: d.TrustProxy,
	}, d.Log)

	r.Route("/users", func(r chi.Router) {
		r.With(limited).Post("/signup", d.Auth.Signup)
		r.With(limited).Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)
		r.With(limited).Post("/forget-password", d.Auth.ForgotPassword)
		r.With(limited).Post("/reset-password", d.Auth.ResetPassword)
		r.Get("/profile/{id}", d.Users.Profile)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/verify", d.Auth.Verify)
			r.Post("/resend-otp", d.Auth.ResendOTP)
			r.Post("/change-password", d.Auth.ChangePassword)
			r.Get("/me", d.Users.Me)
			r.Get("/search", d.Users.Search)
			r.Post("/edit-profile", d.Users.EditProfile)
			r.Post("/follow-unfollow/{id}", d.Users.FollowUnfollow)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/all", d.Posts.All)
		r.Get("/user-post/{id}", d.Posts.ByUser)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/create-post", d.Posts.Create)
			r.Post("/save-unsave-post/{postId}", d.Posts.SaveUnsave)
			r.Post("/like-dislike/{id}", d.Posts.LikeDislike)
			r.Post("/comment/{id}", d.Posts.Comment)
			r.Delete("/delete-post/{id}", d.Posts.Delete)
		})
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authn)
		r.Get("/conversations", d.Messages.Conversations)
		r.Post("/send", d.Messages.Send)
		r.Get("/{userId}", d.Messages.Conversation)
	})
}
