// Package routes maps the storefront API onto its controllers.
package routes

import (
	"net/http"

	"github.com/perennia/storefront/app/controllers"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/middleware"
	"github.com/perennia/storefront/pkg/rbac"
	"github.com/perennia/storefront/pkg/router"
	"github.com/perennia/storefront/pkg/session"
)

// Controllers is everything RegisterAPI mounts.
type Controllers struct {
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Checkout *controllers.CheckoutController
	Contact  *controllers.ContactController
	Settings *controllers.SettingsController
	Setup    *controllers.SetupController
	Feed     *controllers.FeedController
	GraphQL  http.HandlerFunc
}

func RegisterAPI(r *router.Router, c Controllers, lookup middleware.UserLookup) {
	w := ctx.Wrap
	authed := middleware.Authenticate(lookup)

	api := r.Group("/api")
	api.Get("/", "root", w(c.Setup.Root))

	// Auth
	api.Post("/auth/register", "auth.register", w(c.Auth.Register))
	api.Post("/auth/login", "auth.login", w(c.Auth.Login))
	api.Get("/auth/me", "auth.me", w(c.Auth.Me), authed)

	// Catalog
	api.Get("/products", "products.index", w(c.Products.Index))
	api.Get("/products/{id}", "products.show", w(c.Products.Show))
	api.Get("/products/{id}/reviews", "reviews.index", w(c.Products.Reviews))
	api.Post("/products/{id}/reviews", "reviews.store", w(c.Products.StoreReview), authed)

	// Cart lives in a cookie session.
	cart := api.Group("/cart", session.Middleware(session.DefaultOptions()))
	cart.Get("", "cart.show", w(c.Cart.Show))
	cart.Delete("", "cart.clear", w(c.Cart.Clear))
	cart.Post("/items", "cart.add", w(c.Cart.Add))
	cart.Put("/items/{product_id}", "cart.update", w(c.Cart.Update))
	cart.Delete("/items/{product_id}", "cart.remove", w(c.Cart.Remove))
	cart.Post("/quote", "cart.quote", w(c.Cart.Quote))

	// Orders and checkout
	orders := api.Group("/orders", authed)
	orders.Post("", "orders.store", w(c.Orders.Store))
	orders.Get("", "orders.mine", w(c.Orders.Mine))
	orders.Get("/{id}", "orders.show", w(c.Orders.Show))

	checkout := api.Group("/checkout", authed)
	checkout.Post("/create-session", "checkout.create", w(c.Checkout.CreateSession))
	checkout.Get("/status/{session_id}", "checkout.status", w(c.Checkout.Status))
	checkout.Get("/status/{session_id}/stream", "checkout.stream", w(c.Checkout.Stream))

	api.Post("/webhook/stripe", "webhook.stripe", w(c.Checkout.Webhook))

	// Public site
	api.Post("/contact", "contact.submit", w(c.Contact.Submit))
	api.Get("/settings", "settings.show", w(c.Settings.Show))
	api.Get("/graphql", "graphql.query", c.GraphQL)
	api.Post("/graphql", "graphql.exec", c.GraphQL)

	// Bootstrap
	api.Post("/seed", "seed", w(c.Setup.Seed))
	api.Post("/admin/setup", "admin.setup", w(c.Setup.CreateAdmin))
	api.Get("/admin/ws", "admin.ws", c.Feed.Connect)

	// Admin
	admin := api.Group("/admin", authed, rbac.RequireAdmin)
	admin.Post("/products", "admin.products.store", w(c.Products.Store))
	admin.Put("/products/{id}", "admin.products.update", w(c.Products.Update))
	admin.Delete("/products/{id}", "admin.products.destroy", w(c.Products.Destroy))
	admin.Post("/uploads", "admin.uploads", w(c.Products.Upload))

	admin.Get("/orders", "admin.orders.index", w(c.Orders.Index))
	admin.Put("/orders/{id}/status", "admin.orders.status", w(c.Orders.UpdateStatus))

	admin.Get("/contacts", "admin.contacts.index", w(c.Contact.Index))
	admin.Get("/contacts/unread", "admin.contacts.unread", w(c.Contact.Unread))
	admin.Put("/contacts/{id}/read", "admin.contacts.read", w(c.Contact.MarkRead))

	admin.Put("/settings", "admin.settings.update", w(c.Settings.Update))
}
