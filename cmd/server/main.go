package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/inovix/booking-api/internal/config"
	"github.com/inovix/booking-api/internal/database"
	"github.com/inovix/booking-api/internal/handler"
	"github.com/inovix/booking-api/internal/middleware"
	"github.com/inovix/booking-api/internal/payment"
	"github.com/inovix/booking-api/internal/queue"
	"github.com/inovix/booking-api/internal/repository"
	"github.com/inovix/booking-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	slots := repository.NewSlotRepo(db)
	orders := repository.NewOrderRepo(db)

	gateway := payment.NewGateway(cfg.MidtransKey, cfg.MidtransProd)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	serviceH := handler.NewServiceHandler(services, cfg.UploadDir)
	slotH := handler.NewSlotHandler(slots, services)
	orderH := handler.NewOrderHandler(users, services, slots, orders)
	paymentH := handler.NewPaymentHandler(users, orders, slots, services, gateway)

	// Order events land in logs/orders.log; a broker outage only costs
	// the log lines, never an order.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	// Redis-backed rate limiting and response caching degrade to
	// no-ops when Redis is unreachable.  The response cache is keyed
	// by route and query only, so it is scoped to the public catalog
	// reads; authenticated responses are per-user and must not be
	// shared.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	e.Static("/uploads", cfg.UploadDir)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, serviceH, slotH, cacheMW)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterClient(e, orderH, paymentH, cfg.JWTSecret)
	router.RegisterPaymentCallback(e, paymentH)
	router.RegisterAdmin(e, serviceH, slotH, orderH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
