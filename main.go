package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/directory"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/handlers"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/mailer"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/routes"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/session"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/tokenstore"
)

func main() {
	// Load environment variables; a missing .env is fine in production.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := models.InitDB(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	clk := clock.System{}
	issuer := token.NewIssuer(cfg.JWT, clk)
	oneTime := token.NewJWTOneTimeTokens(cfg.JWT, clk)
	store := tokenstore.NewGormStore(db, clk, cfg.JWT.RefreshTokenTTLDays, cfg.JWT.RefreshTokenHashKey)
	users := directory.NewGormDirectory(db, clk)
	sessions := session.NewManager(users, issuer, store, logger)

	outbox := mailer.NewGormOutbox(db, clk)
	sender := mailer.NewSenderFromConfig(cfg.Mailer, logger)
	mailService := mailer.NewService(outbox, sender, cfg.Mailer.DefaultFrom,
		time.Duration(cfg.Mailer.FlushIntervalSeconds)*time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mailService.Run(ctx)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	authHandler := handlers.NewAuthHandler(sessions, users, oneTime, outbox, cfg)
	routes.SetupRoutes(router, authHandler, issuer)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
