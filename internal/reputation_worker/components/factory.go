package components

import (
	"log/slog"

	"github.com/artisan-escrow-ledger/internal/config"
	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/platform/persistence"
	"github.com/artisan-escrow-ledger/internal/reputation_worker/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	reputationRepo reputation.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewEventValidator(logger)
	applier := NewReputationApplier(reputationRepo, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		applier,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
