package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gks77/user-account-service/internal/http/handler"
	"github.com/gks77/user-account-service/internal/http/middleware"
)

// Dependencies carries everything the router mounts. The rate-limit knobs
// are requests per minute; Limiter may be nil to fall back to the in-process
// fixed window.
type Dependencies struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Sessions  *handler.SessionHandler
	Addresses *handler.AddressHandler
	Profiles  *handler.ProfileHandler
	UserTypes *handler.UserTypeHandler

	SessionAuth *middleware.SessionAuth

	Limiter          middleware.Limiter
	Bypass           middleware.BypassEvaluator
	TokenPepper      string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	CORSOrigins      []string

	Readiness http.HandlerFunc
}

func New(dep Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   dep.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if dep.Readiness != nil {
		r.Get("/health/ready", dep.Readiness)
	}

	limiter := dep.Limiter
	if limiter == nil {
		limiter = middleware.NewLocalFixedWindowLimiter()
	}
	authLimit := rateLimiter(limiter, dep.AuthRateLimitRPM, middleware.FailClosed, "auth", nil, dep.Bypass)
	apiLimit := rateLimiter(limiter, dep.APIRateLimitRPM, middleware.FailOpen, "api", middleware.TokenOrIPKeyFunc(dep.TokenPepper), dep.Bypass)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/register", dep.Auth.Register)
			r.Post("/login", dep.Auth.Login)
			r.Post("/refresh", dep.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(dep.SessionAuth.Middleware())
				r.Post("/logout", dep.Auth.Logout)
				r.Post("/logout-all", dep.Auth.LogoutAll)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimit)
			r.Use(dep.SessionAuth.Middleware())

			r.Route("/me", func(r chi.Router) {
				r.Get("/", dep.Users.Me)
				r.Patch("/", dep.Users.UpdateMe)
				r.Delete("/", dep.Users.DeleteMe)
				r.Post("/change-password", dep.Users.ChangePassword)
				r.Post("/avatar", dep.Users.UploadAvatar)
				r.Delete("/avatar", dep.Users.DeleteAvatar)

				r.Route("/profile", func(r chi.Router) {
					r.Get("/", dep.Profiles.Get)
					r.Patch("/", dep.Profiles.Update)
					r.Delete("/", dep.Profiles.Delete)
				})

				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", dep.Sessions.List)
					r.Post("/revoke-others", dep.Sessions.RevokeOthers)
					r.Delete("/{session_id}", dep.Sessions.Revoke)
				})

				r.Route("/addresses", func(r chi.Router) {
					r.Get("/", dep.Addresses.List)
					r.Post("/", dep.Addresses.Create)
					r.Get("/default", dep.Addresses.GetDefault)
					r.Get("/{address_id}", dep.Addresses.Get)
					r.Patch("/{address_id}", dep.Addresses.Update)
					r.Post("/{address_id}/default", dep.Addresses.SetDefault)
					r.Delete("/{address_id}", dep.Addresses.Delete)
				})
			})

			r.Route("/user-types", func(r chi.Router) {
				r.Get("/", dep.UserTypes.List)
				r.Get("/{user_type_id}", dep.UserTypes.Get)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireSuperuser)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", dep.Users.ListUsers)
					r.Get("/{user_id}", dep.Users.GetUser)
					r.Patch("/{user_id}", dep.Users.UpdateUser)
					r.Delete("/{user_id}", dep.Users.DeleteUser)
				})

				r.Post("/sessions/cleanup", dep.Sessions.Cleanup)
			})
		})
	})

	return r
}

func rateLimiter(limiter middleware.Limiter, rpm int, mode middleware.FailureMode, scope string, keyFunc func(*http.Request) string, bypass middleware.BypassEvaluator) func(http.Handler) http.Handler {
	rl := middleware.NewDistributedRateLimiterWithKey(limiter, rpm, time.Minute, mode, scope, keyFunc)
	inner := rl.Middleware()
	if bypass == nil {
		return inner
	}
	return func(next http.Handler) http.Handler {
		limited := inner(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip, _ := bypass(r); skip {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
