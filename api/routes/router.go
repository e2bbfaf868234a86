package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohanjoseph/freshbasket-backend/api/controllers"
	"github.com/rohanjoseph/freshbasket-backend/api/middleware"
	authsvc "github.com/rohanjoseph/freshbasket-backend/internal/auth"
	"github.com/rohanjoseph/freshbasket-backend/internal/cartstate"
	checkoutsvc "github.com/rohanjoseph/freshbasket-backend/internal/checkout"
	ordersvc "github.com/rohanjoseph/freshbasket-backend/internal/orders"
	productsvc "github.com/rohanjoseph/freshbasket-backend/internal/products"
	profilesvc "github.com/rohanjoseph/freshbasket-backend/internal/profiles"
	"github.com/rohanjoseph/freshbasket-backend/pkg/auth/session"
	"github.com/rohanjoseph/freshbasket-backend/pkg/config"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
	"github.com/rohanjoseph/freshbasket-backend/pkg/metrics"
	"github.com/rohanjoseph/freshbasket-backend/pkg/redis"
)

// Params bundles everything the router needs.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	SessionChecker  session.Checker
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
	AuthService     authsvc.Service
	ProductService  productsvc.Service
	OrderService    ordersvc.Service
	ProfileService  profilesvc.Service
	CheckoutService checkoutsvc.Service
	CartRegistry    *cartstate.Registry
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.SessionChecker, logg)).Post("/logout", controllers.AuthLogout(p.AuthService, p.CartRegistry, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductsBrowse(p.ProductService, logg))
		r.Get("/products/{productID}", controllers.ProductGet(p.ProductService, logg))
		r.Get("/categories", controllers.CategoriesList(p.ProductService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(p.CartRegistry, logg))
				r.Post("/items", controllers.CartAdd(p.CartRegistry, logg))
				r.Put("/items/{lineID}", controllers.CartSetQuantity(p.CartRegistry, logg))
				r.Delete("/items/{lineID}", controllers.CartRemove(p.CartRegistry, logg))
			})

			r.Post("/checkout", controllers.CheckoutPlaceOrder(p.CheckoutService, p.CartRegistry, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersHistory(p.OrderService, logg))
				r.Get("/{orderID}", controllers.OrderDetail(p.OrderService, logg))
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(p.ProfileService, logg))
				r.Put("/", controllers.ProfileUpdate(p.ProfileService, logg))
			})
		})
	})

	return r
}
