package processor

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"thefinder/server/config"
	"thefinder/server/internal/queue"
)

func BenchmarkBatchProcessing(b *testing.B) {
	for _, batchSize := range []int{10, 100, 500} {
		b.Run(fmt.Sprintf("BatchSize_%d", batchSize), func(b *testing.B) {
			db := setupTestDB(b)
			cfg := &config.Config{}
			cfg.BatchProcessing.MaxBatchSize = batchSize
			logger := logrus.New()
			logger.SetLevel(logrus.WarnLevel)

			processor := NewBatchProcessor(db.GetDB(), queue.NewListingQueue(1, logger), cfg, logger)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				// fresh structs: ids assigned by a previous insert would collide
				listings := generateTestListings(batchSize)
				b.StartTimer()
				if err := processor.processBatch(listings); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
