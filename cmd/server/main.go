package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/config"
	"github.com/meetox80/zstio-tv-sub000/internal/db"
	"github.com/meetox80/zstio-tv-sub000/internal/handler"
	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
	"github.com/meetox80/zstio-tv-sub000/internal/ratelimit"
	"github.com/meetox80/zstio-tv-sub000/internal/repository"
	"github.com/meetox80/zstio-tv-sub000/internal/router"
	"github.com/meetox80/zstio-tv-sub000/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "song-requests")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	handler.InitMetrics(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	// The shared limiter store rides on the same Redis connection; with no
	// Redis the limiter runs on its in-process fallback alone.
	var limiterStore ratelimit.Store
	if rdb := cache.Client(); rdb != nil {
		limiterStore = ratelimit.NewRedisStore(rdb)
	}
	limiter := ratelimit.New(limiterStore)

	stats := service.NewStatsService(cache.Client())

	var captcha service.CaptchaVerifier = service.NewTurnstileVerifier(cfg.TurnstileSecret)
	if cfg.IsDevelopment() {
		log.Println("development mode: captcha verification bypassed")
		captcha = service.BypassVerifier{}
	}

	proposalRepo := repository.NewProposalRepo(pool)
	songRepo := repository.NewSongRepo(pool)
	voteRepo := repository.NewVoteRepo(pool)
	approvalRepo := repository.NewApprovalRepo(pool)

	proposalSvc := service.NewProposalService(proposalRepo, songRepo, captcha, limiter, stats, cfg.ProposeCooldown)
	voteSvc := service.NewVoteService(voteRepo, songRepo, limiter, stats, cache, cfg.VoteCooldown)
	moderationSvc := service.NewModerationService(approvalRepo, cache)
	gate := service.NewTokenGate(cfg.ModeratorTokens)

	app := fiber.New(fiber.Config{
		AppName:      "Song Requests API",
		ServerHeader: "song-requests",
	})

	router.Setup(app, &router.Handlers{
		Proposal:   handler.NewProposalHandler(proposalSvc, voteSvc),
		Vote:       handler.NewVoteHandler(voteSvc),
		Moderation: handler.NewModerationHandler(moderationSvc, gate),
		Health:     handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("song request backend starting on :%s (env=%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
