package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/availability"
	"github.com/sepehrdad/table-reservation/internal/booking"
	"github.com/sepehrdad/table-reservation/internal/config"
	"github.com/sepehrdad/table-reservation/internal/database"
	"github.com/sepehrdad/table-reservation/internal/gate"
	"github.com/sepehrdad/table-reservation/internal/handler"
	"github.com/sepehrdad/table-reservation/internal/hub"
	"github.com/sepehrdad/table-reservation/internal/middleware"
	"github.com/sepehrdad/table-reservation/internal/queue"
	"github.com/sepehrdad/table-reservation/internal/repository"
	"github.com/sepehrdad/table-reservation/internal/router"
	"github.com/sepehrdad/table-reservation/internal/schedule"
	"github.com/sepehrdad/table-reservation/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// sessions live in redis; without it logins cannot bind the
		// realtime feed
		log.Fatal("redis unavailable")
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	branches := repository.NewBranchRepo(db)
	slots := repository.NewSlotRepo(db)
	bookings := repository.NewBookingRepo(db)
	sessions := repository.NewSessionRepo(rdb, time.Duration(cfg.SessionTTLHours)*time.Hour)

	// realtime
	h := hub.New()
	g := gate.New(sessions, 3*time.Second)

	// domain services
	calc := availability.NewCalculator(slots, bookings)
	gen := schedule.NewGenerator(slots)
	store := repository.NewBookingStore(db, slots, branches, bookings)
	mgr := booking.NewManager(store, service.NewNotifier(h))

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens, sessions, restaurants)
	ownerH := handler.NewOwnerHandler(restaurants, branches, slots, bookings, gen, mgr, cfg.SlotHorizonDays)
	publicH := handler.NewPublicHandler(restaurants, branches, calc)
	bookingH := handler.NewBookingHandler(mgr, bookings)
	wsH := handler.NewWSHandler(g, h)

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, limit, cache)
	router.RegisterOwner(e, ownerH, cfg.JWTSecret)
	router.RegisterDiner(e, bookingH, cfg.JWTSecret)
	router.RegisterWS(e, wsH)

	// audit trail consumer; reconnects on its own
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("[consumer] stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
