package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkmint/inkmint-backend/api/controllers"
	"github.com/inkmint/inkmint-backend/api/middleware"
	address "github.com/inkmint/inkmint-backend/internal/address"
	"github.com/inkmint/inkmint-backend/internal/cart"
	category "github.com/inkmint/inkmint-backend/internal/categories"
	checkoutsvc "github.com/inkmint/inkmint-backend/internal/checkout"
	coupon "github.com/inkmint/inkmint-backend/internal/coupons"
	order "github.com/inkmint/inkmint-backend/internal/orders"
	product "github.com/inkmint/inkmint-backend/internal/products"
	review "github.com/inkmint/inkmint-backend/internal/reviews"
	user "github.com/inkmint/inkmint-backend/internal/users"
	"github.com/inkmint/inkmint-backend/internal/wishlist"
	"github.com/inkmint/inkmint-backend/pkg/auth/session"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	"github.com/inkmint/inkmint-backend/pkg/logger"
	"github.com/inkmint/inkmint-backend/pkg/metrics"
	pkgredis "github.com/inkmint/inkmint-backend/pkg/redis"
)

// Deps bundles the infrastructure the router needs beyond the domain
// services.
type Deps struct {
	DB              controllers.Pinger
	Cache           controllers.Pinger
	Idempotency     pkgredis.IdempotencyStore
	Sessions        session.AccessSessionChecker
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
}

// Services bundles the domain services mounted on the router.
type Services struct {
	Users      user.Service
	Products   product.Service
	Categories category.Service
	Cart       cart.Service
	Wishlist   wishlist.Service
	Coupons    coupon.Service
	Checkout   checkoutsvc.Service
	Orders     order.Service
	Addresses  address.Service
	Reviews    review.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	authn := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	adminOnly := middleware.RequireRole(string(enums.UserRoleAdmin), logg)
	idem := middleware.Idempotency(deps.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Cache, logg))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		// Storefront reads need no credentials.
		r.Get("/products", controllers.ListProducts(svcs.Products, logg))
		r.Get("/products/{slug}", controllers.GetProductBySlug(svcs.Products, logg))
		r.Get("/products/{productID}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Categories, logg))
		r.Get("/categories/tree", controllers.CategoryTree(svcs.Categories, logg))
		r.Get("/categories/{slug}", controllers.GetCategoryBySlug(svcs.Categories, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(idem).Post("/register", controllers.Register(svcs.Users, logg))
			r.Post("/login", controllers.Login(svcs.Users, logg))
			r.Post("/refresh", controllers.Refresh(svcs.Users, logg))
			r.With(authn).Post("/logout", controllers.Logout(svcs.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.GetProfile(svcs.Users, logg))
				r.Put("/", controllers.UpdateProfile(svcs.Users, logg))
				r.Post("/password", controllers.ChangePassword(svcs.Users, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(svcs.Cart, logg))
				r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
				r.With(idem).Post("/items", controllers.AddCartItem(svcs.Cart, logg))
				r.Put("/items/{itemID}", controllers.UpdateCartItem(svcs.Cart, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(svcs.Cart, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.ListWishlist(svcs.Wishlist, logg))
				r.Post("/", controllers.AddWishlistItem(svcs.Wishlist, logg))
				r.Delete("/{productID}", controllers.RemoveWishlistItem(svcs.Wishlist, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(svcs.Addresses, logg))
				r.Post("/", controllers.CreateAddress(svcs.Addresses, logg))
				r.Put("/{addressID}", controllers.UpdateAddress(svcs.Addresses, logg))
				r.Delete("/{addressID}", controllers.DeleteAddress(svcs.Addresses, logg))
				r.Post("/{addressID}/default", controllers.SetDefaultAddress(svcs.Addresses, logg))
			})

			r.Post("/coupons/validate", controllers.ValidateCoupon(svcs.Coupons, logg))

			r.With(idem).Post("/checkout", controllers.InitiateCheckout(svcs.Checkout, logg))
			r.With(idem).Post("/checkout/verify", controllers.VerifyPayment(svcs.Checkout, logg))

			r.Get("/orders", controllers.ListMyOrders(svcs.Orders, logg))
			r.Get("/orders/{orderID}", controllers.GetMyOrder(svcs.Orders, logg))

			r.Post("/products/{productID}/reviews", controllers.CreateReview(svcs.Reviews, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn, adminOnly)

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
				r.Get("/{productID}", controllers.AdminGetProduct(svcs.Products, logg))
				r.Put("/{productID}", controllers.AdminUpdateProduct(svcs.Products, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(svcs.Products, logg))
				r.Post("/{productID}/variants", controllers.AdminAddVariant(svcs.Products, logg))
			})
			r.Put("/variants/{variantID}", controllers.AdminUpdateVariant(svcs.Products, logg))
			r.Delete("/variants/{variantID}", controllers.AdminDeleteVariant(svcs.Products, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminListCategories(svcs.Categories, logg))
				r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
				r.Put("/{categoryID}", controllers.AdminUpdateCategory(svcs.Categories, logg))
				r.Delete("/{categoryID}", controllers.AdminDeleteCategory(svcs.Categories, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(svcs.Coupons, logg))
				r.Post("/", controllers.AdminCreateCoupon(svcs.Coupons, logg))
				r.Get("/{couponID}", controllers.AdminGetCoupon(svcs.Coupons, logg))
				r.Put("/{couponID}", controllers.AdminUpdateCoupon(svcs.Coupons, logg))
				r.Delete("/{couponID}", controllers.AdminDeleteCoupon(svcs.Coupons, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(svcs.Orders, logg))
				r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
				r.With(idem).Post("/{orderID}/refund", controllers.AdminRefundOrder(svcs.Orders, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(svcs.Users, logg))
				r.Put("/{userID}/active", controllers.AdminSetUserActive(svcs.Users, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/pending", controllers.AdminListPendingReviews(svcs.Reviews, logg))
				r.Post("/{reviewID}/approve", controllers.AdminApproveReview(svcs.Reviews, logg))
				r.Delete("/{reviewID}", controllers.AdminDeleteReview(svcs.Reviews, logg))
			})
		})
	})

	return r
}
