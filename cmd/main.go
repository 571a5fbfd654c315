package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"irl-points-system/internal/config"
	"irl-points-system/internal/handler"
	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/internal/scheduler"
	"irl-points-system/internal/service"
	"irl-points-system/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database:", err)
	}

	registry, err := rules.LoadFile(cfg.Rules.File)
	if err != nil {
		logger.Fatal("Failed to load activity rules:", err)
	}
	logger.Info("Activity rules loaded:", registry.Len())

	ledgerRepo := repository.NewLedgerRepository(db)
	cooldownRepo := repository.NewCooldownRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	pendingRepo := repository.NewPendingRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	awardSvc := service.NewAwardService(db, registry, ledgerRepo, cooldownRepo, accountRepo, &cfg.Award)
	referralSvc := service.NewReferralService(db, referralRepo, accountRepo, awardSvc)
	statsSvc := service.NewStatsService(db, accountRepo, ledgerRepo, pendingRepo, awardSvc, referralSvc)
	leaderboardSvc := service.NewLeaderboardService(accountRepo, leaderboardRepo, &cfg.Leaderboard)
	bulkSvc := service.NewBulkAwardService(accountRepo, pendingRepo, awardSvc)
	reconcileSvc := service.NewReconcileService(ledgerRepo, accountRepo)

	leaderboardJob := scheduler.NewLeaderboardScheduler(leaderboardSvc, cfg.Leaderboard.RefreshCron)
	if err := leaderboardJob.Start(); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}
	defer leaderboardJob.Stop()

	router := setupHTTPRouter(awardSvc, statsSvc, referralSvc, leaderboardSvc, bulkSvc, reconcileSvc, leaderboardJob)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}

func setupHTTPRouter(
	awardSvc *service.AwardService,
	statsSvc *service.StatsService,
	referralSvc *service.ReferralService,
	leaderboardSvc *service.LeaderboardService,
	bulkSvc *service.BulkAwardService,
	reconcileSvc *service.ReconcileService,
	leaderboardJob *scheduler.LeaderboardScheduler,
) http.Handler {
	router := http.NewServeMux()

	awardHandler := handler.NewAwardHandler(awardSvc)
	usersHandler := handler.NewUsersHandler(statsSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	referralHandler := handler.NewReferralHandler(referralSvc)
	adminHandler := handler.NewAdminHandler(bulkSvc, reconcileSvc, leaderboardJob)

	router.HandleFunc("/api/award", awardHandler.Award)
	router.HandleFunc("/api/can-perform", awardHandler.CanPerform)
	router.HandleFunc("/api/activities", awardHandler.ListActivities)
	router.HandleFunc("/api/users/register", usersHandler.Register)
	router.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case len(r.URL.Path) > 0 && hasSuffixSegment(r.URL.Path, "stats"):
			usersHandler.GetStats(w, r)
		case hasSuffixSegment(r.URL.Path, "activity"):
			usersHandler.GetActivity(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	router.HandleFunc("/api/leaderboard", leaderboardHandler.GetLeaderboard)
	router.HandleFunc("/api/rank/", leaderboardHandler.GetRank)
	router.HandleFunc("/api/referrals", referralHandler.Register)
	router.HandleFunc("/api/referrals/complete", referralHandler.Complete)
	router.HandleFunc("/api/referrals/stats/", referralHandler.GetStats)
	router.HandleFunc("/api/admin/points-upload", adminHandler.PointsUpload)
	router.HandleFunc("/api/admin/pending-points", adminHandler.PendingPoints)
	router.HandleFunc("/api/admin/reconcile", adminHandler.Reconcile)
	router.HandleFunc("/api/admin/leaderboard/refresh", adminHandler.RefreshLeaderboard)
	router.HandleFunc("/health", handler.HandleHealth)

	return router
}

func hasSuffixSegment(path, segment string) bool {
	trimmed := path
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == '/' {
		trimmed = trimmed[:len(trimmed)-1]
	}
	idx := len(trimmed) - len(segment)
	return idx > 0 && trimmed[idx:] == segment && trimmed[idx-1] == '/'
}
