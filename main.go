package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"collabdev/handlers"
	"collabdev/middleware"
	"collabdev/models"
	"collabdev/services"
	"collabdev/utils"
	"collabdev/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB — contribution attachments
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Println("⚠️  R2 not configured, contribution attachments will be stored locally:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Feature{},
		&models.Participant{},
		&models.Contribution{},
		&models.Badge{},
		&models.BadgeGrant{},
		&models.CoinRule{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	notificationService := services.NewNotificationService(db)
	ledgerService := services.NewLedgerService(db)
	coinRuleService := services.NewCoinRuleService(db)
	badgeService := services.NewBadgeService(db, ledgerService, notificationService)
	userService := services.NewUserService(db, coinRuleService)
	projectService := services.NewProjectService(db, notificationService)
	participantService := services.NewParticipantService(db, ledgerService, coinRuleService, badgeService, notificationService)
	contributionService := services.NewContributionService(db, ledgerService, coinRuleService, badgeService, notificationService)

	// Install the system administrator, default coin rules and the badge
	// catalog before taking traffic.
	seeder := services.NewSeeder(db, coinRuleService, badgeService)
	if err := seeder.Run(); err != nil {
		log.Fatal("failed to seed defaults:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := workers.NewNotificationDispatcher(db, services.LogMailer{})
	go dispatcher.Run(ctx, 30*time.Second)

	contributionService.StartReviewReminderScheduler(48 * time.Hour)

	// ✅ Setup routes — enforced Gateway auth, user context on secured groups
	handlers.SetupUserRoutes(app, userService, notificationService)
	handlers.SetupProjectRoutes(app, projectService)
	handlers.SetupParticipantRoutes(app, participantService)
	handlers.SetupContributionRoutes(app, contributionService)
	handlers.SetupBadgeRoutes(app, badgeService, coinRuleService)

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Notification dispatcher running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
