package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"observatory/internal/config"
	"observatory/internal/database"
	"observatory/internal/middleware"
	"observatory/internal/modules/admin"
	"observatory/internal/modules/auth"
	"observatory/internal/modules/booking"
	"observatory/internal/modules/notification"
	"observatory/internal/modules/reminder"
	"observatory/internal/modules/telescope"
	"observatory/internal/pkg/clock"
	jwtsvc "observatory/internal/pkg/jwt"
	"observatory/internal/realtime"
	"observatory/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed: ", err)
	}

	userRepo := repository.NewUserRepository(db)
	telescopeRepo := repository.NewTelescopeRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := realtime.NewHub()
	clk := clock.Real{}

	notificationService := notification.NewService(notificationRepo, hub)
	notificationHandler := notification.NewHandler(notificationService)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	bookingService := booking.NewService(bookingRepo, telescopeRepo, notificationService, hub, clk)
	bookingHandler := booking.NewHandler(bookingService)

	telescopeService := telescope.NewService(telescopeRepo, bookingRepo, clk)
	telescopeHandler := telescope.NewHandler(telescopeService)

	adminService := admin.NewService(bookingRepo)
	adminHandler := admin.NewHandler(adminService)

	wsHandler := realtime.NewHandler(hub)

	dailyHour, dailyMinute, err := config.ParseWallClock(cfg.ReminderDailyAt)
	if err != nil {
		log.Fatal(err)
	}
	scheduler, err := reminder.New(bookingRepo, notificationService, clk, reminder.Config{
		DailyHour:         dailyHour,
		DailyMinute:       dailyMinute,
		ImminentEvery:     cfg.ReminderImminentEvery,
		ImminentWindowMin: cfg.ImminentWindowMin,
		ImminentWindowMax: cfg.ImminentWindowMax,
		NotifyTimeout:     cfg.NotifyTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	r := gin.Default()
	r.Use(middleware.CORS(), middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		telescopeHandler.RegisterPublicRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			wsHandler.RegisterRoutes(protected)
		}

		// admin
		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			adminHandler.RegisterRoutes(adminGroup)
			telescopeHandler.RegisterAdminRoutes(adminGroup)
		}
	}

	scheduler.Start()
	stopCleanup := notificationService.StartCleanup(24 * time.Hour)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Println("listening on", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	scheduler.Stop()
	stopCleanup()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown: ", err)
	}
}
