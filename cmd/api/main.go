package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shop-api/internal/config"
	"shop-api/internal/handler"
	"shop-api/internal/middleware"
	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/internal/service"
	"shop-api/internal/session"
	"shop-api/internal/ws"
	"shop-api/pkg/database"
	"shop-api/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogQueries:      cfg.Database.LogQueries,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// AutoMigrate is fine for this schema; switch to versioned migrations before it grows
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 3. Session store: Redis when configured, in-process otherwise
	var store session.Store
	if cfg.Session.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.Session.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("Using redis session store")
	} else {
		store = session.NewMemoryStore()
		log.Println("Warning: REDIS_URL not set, sessions are kept in memory")
	}
	sessions := session.NewManager(store, jwt.NewSigner(cfg.Session.Secret, cfg.Server.AppName), session.CookieConfig{
		Name:     cfg.Session.CookieName,
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.CookieSameSite,
		TTL:      cfg.Session.TTL,
	})

	// 4. Setup WebSocket Hub
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	cartRepo := repository.NewCartRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	logRepo := repository.NewOrderStatusLogRepo(db)
	userRepo := repository.NewUserRepo(db)
	dashRepo := repository.NewDashboardRepo(db)

	catalogService := service.NewCatalogService(productRepo, wsHub)
	cartService := service.NewCartService(db, cartRepo, productRepo)
	orderService := service.NewOrderService(db, productRepo, cartRepo, orderRepo, wsHub, service.CheckoutConfig{
		Pricing: service.Pricing{
			FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
			FlatShippingFee:       cfg.Order.ShippingFee,
		},
		OrderNoMaxAttempts: cfg.Order.OrderNoMaxAttempts,
		MaxRetries:         cfg.Order.CheckoutMaxRetries,
		NewOrderNo:         service.NewOrderNumberFunc(cfg.Order.OrderNoPrefix),
	})
	statusService := service.NewOrderStatusService(db, orderRepo, logRepo, wsHub, cfg.Order.StrictTransitions)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	dashService := service.NewDashboardService(dashRepo)

	// 6. Seed the bootstrap admin when configured
	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			log.Printf("Warning: Failed to seed admin user: %v", err)
		}
	}

	authHandler := handler.NewAuthHandler(authService, sessions)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	adminOrderHandler := handler.NewAdminOrderHandler(orderService, statusService)
	userHandler := handler.NewUserHandler(userService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ","),
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.LoadSession(sessions))

	requireAuth := middleware.RequireAuth(userRepo, sessions)
	requireAdmin := middleware.RequireAdmin()

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/logout", authHandler.Logout)

	api.Get("/products", catalogHandler.GetProducts)
	api.Get("/products/:id", catalogHandler.GetProduct)

	// ============ CUSTOMER ROUTES ============
	cart := api.Group("/cart", requireAuth)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Patch("/items/:cartItemId", cartHandler.UpdateItem)
	cart.Delete("/items/:cartItemId", cartHandler.RemoveItem)

	orders := api.Group("/orders", requireAuth)
	orders.Post("/checkout", orderHandler.Checkout)
	orders.Get("/", orderHandler.GetMyOrders)
	orders.Get("/:orderNo", orderHandler.GetMyOrder)

	// ============ ADMIN ROUTES ============
	admin := api.Group("/admin", requireAuth, requireAdmin)
	admin.Get("/orders", adminOrderHandler.GetOrders)
	admin.Get("/orders/:orderNo", adminOrderHandler.GetOrder)
	admin.Post("/orders/:orderNo/status", adminOrderHandler.ChangeStatus)
	admin.Patch("/orders/:orderNo/status", adminOrderHandler.ChangeStatus)
	admin.Post("/orders/:orderNo/shipping", adminOrderHandler.UpdateShipping)
	admin.Get("/orders/:orderNo/logs", adminOrderHandler.GetLogs)
	admin.Get("/users", userHandler.GetUsers)
	admin.Patch("/users/:id", userHandler.UpdateUser)
	admin.Post("/products", catalogHandler.CreateProduct)
	admin.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	// WebSocket Route (admin event stream)
	app.Use("/ws", requireAuth, requireAdmin, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Add(c) {
			return
		}
		defer wsHub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	stop()

	log.Println("Server exited")
}
