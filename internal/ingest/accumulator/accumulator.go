// internal/ingest/accumulator/accumulator.go
package accumulator

import (
	"sync"
	"time"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"

	"github.com/google/uuid"
)

type Config struct {
	MaxBatchSize int
	MaxWait      time.Duration
}

// Accumulator groups validated records into bounded batches so the catalog
// store sees bulk writes instead of per-record traffic. A batch seals when
// it reaches MaxBatchSize or when MaxWait elapses since its first record,
// whichever comes first.
//
// Offer and Flush serialize on one mutex: concurrent validation completions
// cannot lose records or land the same record in two batches. The sealed
// channel is bounded; when the writer falls behind, Offer blocks, which is
// the pipeline's backpressure against the store. The consumer of Sealed()
// must not call Offer or Flush from its own goroutine.
type Accumulator struct {
	config *Config
	logger logger.Logger

	mu       sync.Mutex
	open     []models.Record
	openedAt time.Time
	gen      uint64
	timer    *time.Timer

	sealed chan *models.Batch
}

func New(config *Config, log logger.Logger) *Accumulator {
	return &Accumulator{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "batch-accumulator"}),
		sealed: make(chan *models.Batch, 4),
	}
}

// Sealed delivers batches in seal order.
func (a *Accumulator) Sealed() <-chan *models.Batch {
	return a.sealed
}

// Offer appends a validated record to the current open batch.
func (a *Accumulator) Offer(record models.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.open = append(a.open, record)
	if len(a.open) == 1 {
		a.openedAt = time.Now().UTC()
		a.startTimerLocked()
	}

	if len(a.open) >= a.config.MaxBatchSize {
		a.sealLocked(models.FlushTriggerSize)
	}
}

// Flush seals and returns the current open batch, replacing it with a new
// empty one. Returns nil when nothing is pending.
func (a *Accumulator) Flush() *models.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sealLocked(models.FlushTriggerManual)
}

// Drain seals whatever is open during shutdown and closes the sealed channel.
func (a *Accumulator) Drain() {
	a.mu.Lock()
	a.sealLocked(models.FlushTriggerShutdown)
	close(a.sealed)
	a.mu.Unlock()
}

func (a *Accumulator) startTimerLocked() {
	gen := a.gen
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.config.MaxWait, func() {
		a.flushExpired(gen)
	})
}

func (a *Accumulator) flushExpired(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// A size-triggered seal may have already replaced this batch.
	if gen != a.gen || len(a.open) == 0 {
		return
	}
	a.sealLocked(models.FlushTriggerTimeout)
}

func (a *Accumulator) sealLocked(trigger models.FlushTrigger) *models.Batch {
	if len(a.open) == 0 {
		return nil
	}

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	batch := &models.Batch{
		ID:        uuid.NewString(),
		Records:   a.open,
		CreatedAt: a.openedAt,
		SealedAt:  time.Now().UTC(),
		Trigger:   trigger,
	}

	a.open = nil
	a.gen++

	metrics.BatchesFlushed.WithLabelValues(string(trigger)).Inc()
	metrics.BatchSize.Observe(float64(batch.Size()))
	a.logger.Debug("batch sealed", map[string]interface{}{
		"batchId": batch.ID,
		"size":    batch.Size(),
		"trigger": string(trigger),
	})

	a.sealed <- batch
	return batch
}
