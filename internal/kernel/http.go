// Package kernel assembles the storefront: repositories, services and
// controllers over one database handle, behind the global middleware stack.
package kernel

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/controllers"
	"github.com/perennia/storefront/app/graph"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/app/routes"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/graphql"
	"github.com/perennia/storefront/pkg/metrics"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/payment"
	"github.com/perennia/storefront/pkg/reqid"
	"github.com/perennia/storefront/pkg/response"
	"github.com/perennia/storefront/pkg/router"
	"github.com/perennia/storefront/pkg/storage"
	"github.com/perennia/storefront/pkg/ws"
)

// Options are the process-level choices New needs. Zero values are usable:
// no gateway means payments are unconfigured.
type Options struct {
	Gateway       payment.Gateway
	Hub           *ws.Hub
	Disk          storage.Disk
	Production    bool
	AdminEmail    string
	AdminPassword string
	Poll          services.PollOptions
	RateLimit     int
	CORS          middleware.CORSOptions
}

// App holds the wired services. Background workers and the CLI reach the
// domain through it.
type App struct {
	DB  *gorm.DB
	Hub *ws.Hub

	Orders   *repositories.OrderRepository
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Checkout *services.CheckoutService
	Setup    *services.SetupService

	router *router.Router
}

func New(db *gorm.DB, opts Options) (*App, error) {
	if opts.Hub == nil {
		opts.Hub = ws.NewHub()
	}
	if opts.Disk == nil {
		opts.Disk = storage.Default()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 200
	}
	if len(opts.CORS.AllowedOrigins) == 0 {
		opts.CORS = middleware.DefaultCORSOptions()
	}

	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	orders := repositories.NewOrderRepository(db)

	authSvc := services.NewAuthService(users)
	catalog := services.NewCatalogService(products)
	settings := services.NewSettingsService(repositories.NewSettingsRepository(db))
	checkout := services.NewCheckoutService(orders, repositories.NewPaymentRepository(db), opts.Gateway, opts.Poll)
	setup := services.NewSetupService(db, opts.Production, catalog)

	schema, err := graph.NewSchema(catalog, settings)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	a := &App{
		DB:       db,
		Hub:      opts.Hub,
		Orders:   orders,
		Auth:     authSvc,
		Catalog:  catalog,
		Checkout: checkout,
		Setup:    setup,
		router:   router.New(),
	}

	r := a.router
	// Global stack, outermost first: metrics, recovery, request id, logger,
	// CORS, rate limit.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	if local, ok := opts.Disk.(*storage.LocalDisk); ok {
		r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Root()))))
	}

	routes.RegisterAPI(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authSvc),
		Products: controllers.NewProductController(catalog, services.NewReviewService(repositories.NewReviewRepository(db), products, users, catalog), services.NewUploadService(opts.Disk)),
		Cart:     controllers.NewCartController(services.NewCartService(products)),
		Orders:   controllers.NewOrderController(services.NewOrderService(orders, catalog)),
		Checkout: controllers.NewCheckoutController(checkout),
		Contact:  controllers.NewContactController(services.NewContactService(repositories.NewContactRepository(db))),
		Settings: controllers.NewSettingsController(settings),
		Setup:    controllers.NewSetupController(setup, controllers.AdminCredentials{Email: opts.AdminEmail, Password: opts.AdminPassword}),
		Feed:     controllers.NewFeedController(opts.Hub, authSvc.Lookup),
		GraphQL:  graphql.Handler(schema),
	}, authSvc.Lookup)

	return a, nil
}

func (a *App) Handler() http.Handler { return a.router.Handler() }

// Routes lists the mounted routes for route:list.
func (a *App) Routes() []router.RouteInfo { return a.router.Routes() }
