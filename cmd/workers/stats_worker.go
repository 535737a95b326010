package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/config"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
)

// StatsWorker recomputes dashboard snapshots on a schedule and persists
// them through the snapshot table, so API processes serve them warm on
// cache miss instead of recomputing inline
type StatsWorker struct {
	store   *entities.Store
	service *stats.Service
	logger  *zap.Logger
}

func (w *StatsWorker) refreshAll(ctx context.Context) {
	hackathons, err := w.store.ListHackathons(ctx, entities.Scope{})
	if err != nil {
		w.logger.Error("Failed to list hackathons", zap.Error(err))
		return
	}

	// one scope per hackathon plus one per distinct organizer, since
	// dashboards read both slices
	scopes := make([]entities.Scope, 0, len(hackathons))
	organizers := make(map[string]bool)
	for i := range hackathons {
		scopes = append(scopes, stats.ScopeForHackathon(hackathons[i].ID))
		if organizers[hackathons[i].OrganizerID.String()] {
			continue
		}
		organizers[hackathons[i].OrganizerID.String()] = true
		organizerID := hackathons[i].OrganizerID
		scopes = append(scopes, entities.Scope{OrganizerID: &organizerID})
	}

	start := time.Now()
	refreshed := 0
	for _, scope := range scopes {
		if err := w.service.Refresh(ctx, scope); err != nil {
			w.logger.Error("Failed to refresh snapshot", zap.Error(err))
			continue
		}
		refreshed++
	}

	w.logger.Info("Snapshot refresh complete",
		zap.Int("refreshed", refreshed),
		zap.Int("total", len(scopes)),
		zap.Duration("duration", time.Since(start)))
}

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database pool", zap.Error(err))
	}
	defer sqlDB.Close()

	store := entities.NewStore(db)
	cache := stats.NewSnapshotCache(cfg.Stats.CacheTTL)
	worker := &StatsWorker{
		store:   store,
		service: stats.NewService(store, cache, logger).WithPersistence(store),
		logger:  logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Stats.RefreshSchedule, func() {
		worker.refreshAll(ctx)
	}); err != nil {
		logger.Fatal("Invalid refresh schedule",
			zap.String("schedule", cfg.Stats.RefreshSchedule),
			zap.Error(err))
	}

	// Warm the cache immediately, then hand over to the schedule
	worker.refreshAll(ctx)
	scheduler.Start()
	logger.Info("Stats worker started",
		zap.String("schedule", cfg.Stats.RefreshSchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down stats worker...")

	cancel()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Stats worker exiting")
}
