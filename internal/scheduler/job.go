package scheduler

import (
	"context"
	"strconv"
	"time"

	"airbnmail/internal/config"
	"airbnmail/internal/logger"
	"airbnmail/internal/service"
)

// SyncJob runs the notification sync pipeline on a fixed interval.
type SyncJob struct {
	syncService service.SyncService
	logger      *logger.Logger
	interval    time.Duration

	// Context for managing the job lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSyncJob creates a new sync job
func NewSyncJob(syncService service.SyncService, logger *logger.Logger) *SyncJob {
	// Get sync interval from environment variable, default to 5 minutes
	intervalStr := config.GetEnv("SYNC_INTERVAL_SECONDS", "300")
	intervalSeconds, err := strconv.Atoi(intervalStr)
	if err != nil || intervalSeconds <= 0 {
		intervalSeconds = 300
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SyncJob{
		syncService: syncService,
		logger:      logger,
		interval:    time.Duration(intervalSeconds) * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the periodic sync job
func (j *SyncJob) Start() {
	j.logger.Info("Starting sync job with interval:", j.interval.String())

	// Run the initial sync
	go j.runSync()

	// Start the ticker for periodic syncs
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go j.runSync()
		case <-j.ctx.Done():
			j.logger.Info("Sync job stopped")
			return
		}
	}
}

// Stop stops the periodic sync job
func (j *SyncJob) Stop() {
	j.cancel()
}

func (j *SyncJob) runSync() {
	j.logger.Info("Running periodic notification sync...")

	result, err := j.syncService.SyncOnce(j.ctx)
	if err != nil {
		j.logger.Error("Periodic sync failed:", err)
		return
	}

	j.logger.Info("Completed periodic sync", result.RunID, ":",
		result.Fetched, "fetched,", result.Processed, "processed,",
		result.Skipped, "skipped,", result.Failed, "failed")
}

// GetInterval returns the sync interval
func (j *SyncJob) GetInterval() time.Duration {
	return j.interval
}
