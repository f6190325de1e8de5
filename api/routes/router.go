package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/locations"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/returns"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type placementService interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error)
}

type inventoryService interface {
	List(ctx context.Context, filters inventory.ListFilters) ([]inventory.RecordView, error)
	SetQuantity(ctx context.Context, recordID uuid.UUID, qty int) (*models.InventoryRecord, error)
}

type returnService interface {
	RequestReturn(ctx context.Context, identity *pkgAuth.Identity, orderID uuid.UUID, items []returns.ReturnLine, reason string) (*returns.ReturnDTO, error)
	UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refundAmount *decimal.Decimal) (*returns.ReturnDTO, error)
	List(ctx context.Context, status *enums.ReturnStatus) ([]returns.ReturnDTO, error)
}

// Deps carries everything the HTTP surface needs. Nil services answer with
// an internal error instead of panicking.
type Deps struct {
	DB          controllers.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth      auth.Service
	Users     users.Service
	Products  products.Service
	Locations locations.Service
	Orders    orders.Service
	Placement placementService
	Returns   returnService
	Inventory inventoryService
	Dashboard dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	loginThrottle := middleware.LoginThrottle(cfg.AuthRateLimit)
	registerThrottle := middleware.RegisterThrottle(cfg.AuthRateLimit)

	// chi only knows the full route pattern once the leaf is matched, so
	// idempotency is attached per route rather than per group.
	var idempotent func(http.Handler) http.Handler = passthrough
	throttled := func(middleware.Throttle) func(http.Handler) http.Handler { return passthrough }
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["db"] = deps.DB
	}
	if deps.Redis != nil {
		idempotent = middleware.Idempotency(deps.Redis, logg)
		throttled = func(t middleware.Throttle) func(http.Handler) http.Handler {
			return t.Middleware(deps.Redis, logg)
		}
		readiness["redis"] = deps.Redis
	}

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(throttled(loginThrottle)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(throttled(registerThrottle), idempotent).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Placement, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.MyOrderDetail(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/returns", controllers.RequestReturn(deps.Returns, logg))
			})

			r.Route("/pos", func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.With(idempotent).Post("/orders", controllers.POSOrder(deps.Placement, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.AdminInventory(deps.Inventory, logg))
			r.With(idempotent).Put("/{inventoryId}", controllers.AdminInventorySet(deps.Inventory, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.With(idempotent).Put("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
			r.With(idempotent).Post("/{orderId}/payment-override", controllers.AdminOrderPaymentOverride(deps.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.AdminReturns(deps.Returns, logg))
			r.With(idempotent).Put("/{returnId}/status", controllers.AdminReturnStatus(deps.Returns, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", controllers.AdminLocations(deps.Locations, logg))
			r.With(idempotent).Post("/", controllers.AdminLocationCreate(deps.Locations, logg))
			r.With(idempotent).Put("/{locationId}", controllers.AdminLocationUpdate(deps.Locations, logg))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", controllers.AdminStaff(deps.Users, logg))
			r.With(idempotent).Post("/", controllers.AdminEmployeeCreate(deps.Users, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.With(idempotent).Post("/", controllers.AdminProductCreate(deps.Products, logg))
			r.With(idempotent).Put("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
