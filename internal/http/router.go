package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"
)

type Services struct {
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Orders   OrderService
	Auth     AuthService
}

type RouterConfig struct {
	RequestTimeout time.Duration
	// LoginRate is the sustained login attempts per second allowed per client.
	LoginRate  float64
	LoginBurst int
	Metrics    http.Handler
	Logger     zerolog.Logger
}

func NewRouter(s Services, cfg RouterConfig) http.Handler {
	catalogHandler := NewCatalogHandler(s.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(s.Cart, s.Checkout, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(s.Orders, cfg.RequestTimeout)
	userHandler := NewUserHandler(s.Auth, cfg.RequestTimeout)
	loginLimiter := NewRateLimiter(rate.Limit(cfg.LoginRate), cfg.LoginBurst)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(cfg.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-ID"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", catalogHandler.Search)
			r.Get("/subjects", catalogHandler.Subjects)
			r.Get("/{isbn}", catalogHandler.Get)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.With(loginLimiter.Middleware).Post("/login", userHandler.Login)
			r.With(AuthMiddleware(s.Auth)).Post("/logout", userHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.Auth))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Post("/checkout", cartHandler.Checkout)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{id}", ordersHandler.GetOrder)
			})
		})
	})

	return r
}
