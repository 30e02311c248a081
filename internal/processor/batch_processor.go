package processor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"thefinder/server/config"
	"thefinder/server/internal/database"
	"thefinder/server/internal/models"
	"thefinder/server/internal/queue"
)

// Transactor runs a function inside a database transaction. *gorm.DB satisfies it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor stores the listing batches published on the queue
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.ListingQueue
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to the queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
}

// Stop aborts pending retries. A batch aborted this way is reported as failed.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// processBatch upserts a batch in one transaction, retrying on failure
func (p *BatchProcessor) processBatch(batch []*models.Listing) error {
	maxRetries := p.config.BatchProcessing.MaxRetries
	retryDelay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("batch processing stopped: %w", err)
			case <-time.After(retryDelay):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			return database.UpsertListings(tx.WithContext(p.ctx), batch)
		})
		if err == nil {
			p.logger.WithField("batch_size", len(batch)).Info("Successfully processed listing batch")
			return nil
		}

		p.logger.WithError(err).Error("Batch processing failed")
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err)
}
