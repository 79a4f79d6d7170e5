package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medicine-cart/medicine_cart/internal/auth"
	"github.com/medicine-cart/medicine_cart/internal/cart"
	"github.com/medicine-cart/medicine_cart/internal/catalog"
	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/config"
	"github.com/medicine-cart/medicine_cart/internal/metrics"
	"github.com/medicine-cart/medicine_cart/internal/middleware"
	"github.com/medicine-cart/medicine_cart/internal/order"
	"github.com/medicine-cart/medicine_cart/internal/otp"
	"github.com/medicine-cart/medicine_cart/internal/profile"
	"github.com/medicine-cart/medicine_cart/internal/validation"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg        config.Config
	DB         *pgxpool.Pool
	Cache      *redis.Client
	Logger     *slog.Logger
	Dispatcher auth.Dispatcher
	// Clock defaults to the system clock.
	Clock clock.Clock
}

// Setup configures middlewares and all application routes. Without DB or
// Cache, development runs fall back to in-memory stores.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Dispatcher == nil {
		return fmt.Errorf("dispatcher is required")
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLog(d.Logger))
	app.Use(metrics.Middleware())

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler())
	app.Static("/static", "./static")

	validate, err := validation.New()
	if err != nil {
		return fmt.Errorf("build validator: %w", err)
	}

	var (
		otpStore otp.Store
		denylist auth.Denylist
	)
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
		denylist = auth.NewRedisDenylist(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore(d.Clock)
		denylist = auth.NewMemoryDenylist(d.Clock)
	}
	engine := otp.NewEngine(otpStore, otp.NewHMACHasher(d.Cfg.HMACSecret), d.Cfg.OTPTTL)

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret:   d.Cfg.JWTSecret,
		TTL:      d.Cfg.AccessTokenTTL,
		Clock:    d.Clock,
		Denylist: denylist,
	})
	if err != nil {
		return fmt.Errorf("build token issuer: %w", err)
	}

	var (
		productRepo catalog.Repository
		profileRepo profile.Repository
		cartRepo    cart.Repository
		orderRepo   order.Repository
	)
	if d.DB != nil {
		productRepo = catalog.NewPostgresRepository(d.DB)
		profileRepo = profile.NewPostgresRepository(d.DB)
		cartRepo = cart.NewPostgresRepository(d.DB)
		orderRepo = order.NewPostgresRepository(d.DB)
	} else {
		inventory := catalog.NewMemoryRepository(catalog.DevProducts()...)
		productRepo = inventory
		profileRepo = profile.NewMemoryRepository()
		cartRepo = cart.NewMemoryRepository()
		orderRepo = order.NewMemoryRepository(inventory)
	}

	catalogSvc := catalog.NewService(productRepo)
	profileSvc := profile.NewService(profileRepo, d.Clock, d.Logger)
	cartSvc := cart.NewService(cartRepo, catalogSvc, d.Logger)
	orderSvc := order.NewService(order.ServiceDeps{
		Repo:     orderRepo,
		Carts:    cartSvc,
		Profiles: profileSvc,
		Products: catalogSvc,
		Clock:    d.Clock,
		Logger:   d.Logger,
	})
	deliverySvc := order.NewDeliveryService(orderRepo, engine, d.Dispatcher, d.Clock, d.Logger)
	authSvc := auth.NewService(engine, issuer, d.Dispatcher, d.Logger)

	jwtmw := middleware.JWTAuth(issuer)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	RegisterAuthRoutes(app, auth.NewHandler(authSvc, validate), jwtmw)
	RegisterCatalogRoutes(app, catalog.NewHandler(catalogSvc))
	RegisterCartRoutes(app, cart.NewHandler(cartSvc, validate), jwtmw)
	RegisterProfileRoutes(app, profile.NewHandler(profileSvc, validate), jwtmw)
	RegisterOrderRoutes(app, order.NewHandler(orderSvc, deliverySvc, validate), jwtmw, idempotency)

	return nil
}
