package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/blog-api/internal/api/handlers"
	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/metrics"
	"github.com/isdelr/blog-api/internal/ratelimit"
	"github.com/isdelr/blog-api/internal/services"
)

// Messages for routes that override the default auth responses.
const (
	msgPostAuthRequired    = "Authentication required to create posts"
	msgCommentAuthRequired = "Authentication required to comment"
	msgTokenRejected       = "Invalid or expired token"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Users    services.UserServiceProvider
	Posts    services.PostServiceProvider
	Comments services.CommentServiceProvider
	Tags     services.TagServiceProvider
	Events   services.EventServiceProvider
	Health   handlers.Pinger

	Tokens  *auth.TokenService
	Metrics *metrics.Metrics
	// Limiter throttles login and registration. Nil disables it.
	Limiter *ratelimit.Limiter

	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Initialize handlers
	authn := auth.NewAuthenticator(d.Tokens, response.Error)
	userHandler := handlers.NewUserHandler(d.Users, d.Tokens)
	postHandler := handlers.NewPostHandler(d.Posts)
	commentHandler := handlers.NewCommentHandler(d.Comments)
	tagHandler := handlers.NewTagHandler(d.Tags)
	eventHandler := handlers.NewEventHandler(d.Events)

	throttle := func(prefix string) func(http.Handler) http.Handler {
		if d.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return d.Limiter.Middleware(prefix)
	}

	if d.Health != nil {
		r.Get("/healthz", handlers.NewHealthHandler(d.Health).Check)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	// Authentication
	r.Get("/register", userHandler.RegisterInfo)
	r.With(throttle("register")).Post("/register", userHandler.Register)
	r.Get("/login", userHandler.LoginInfo)
	r.With(throttle("login")).Post("/login", userHandler.Login)
	r.Get("/logout", userHandler.Logout)
	r.Post("/logout", userHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Route("/account", func(r chi.Router) {
			r.Get("/", userHandler.Account)
			r.Post("/", userHandler.UpdateAccount)
			r.Put("/", userHandler.UpdateAccount)
			r.Get("/activity", eventHandler.GetRecent)
		})
		r.Post("/tag-post", tagHandler.TagPost)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.GetAll)
		r.With(authn.Require(msgPostAuthRequired, msgTokenRejected)).Post("/", postHandler.Create)

		r.With(authn.Middleware).Put("/update/{id:[0-9]+}", postHandler.Update)
		r.With(authn.Middleware).Delete("/delete/{id:[0-9]+}", postHandler.Delete)

		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", postHandler.Get)
			r.Get("/comments", commentHandler.GetAll)
			r.With(authn.Require(msgCommentAuthRequired, msgTokenRejected)).Post("/comments", commentHandler.Create)
		})
	})

	return r
}
