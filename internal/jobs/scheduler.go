package jobs

import (
	"database/sql"
	"fmt"
	"log"

	"FinTrack/internal/logger"
	"FinTrack/internal/serviceiface"
)

// CronService owns the scheduled background jobs.
type CronService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewCronService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	recatConfig := NewDefaultRecategorizationConfig()

	// Override from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["recategorization_schedule"].(string); ok && schedule != "" {
			recatConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["recategorization_batch_size"].(int); ok && batchSize > 0 {
			recatConfig.BatchSize = batchSize
		}
	}

	if err := RunRecategorizationScheduler(recatConfig, s.db); err != nil {
		return fmt.Errorf("failed to start recategorization scheduler: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Recategorization scheduler started")
	}
	log.Println("Cron service started, recategorization job scheduled")

	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
