package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/metrics"
)

type AuditConfig struct {
	WorkerCount    int
	BatchSize      int
	Timeout        time.Duration
	PublishTimeout time.Duration
}

func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		WorkerCount:    2,
		BatchSize:      5,
		Timeout:        500 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

// AuditManager batches audit entries and hands each batch to a worker that
// publishes the entries one message at a time.
type AuditManager struct {
	publisher EventPublisher
	log       *zap.Logger
	config    AuditConfig

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	once       sync.Once

	wg           sync.WaitGroup
	pendingMu    sync.Mutex
	pendingCount int
}

func NewAuditManager(publisher EventPublisher, log *zap.Logger, config AuditConfig) *AuditManager {
	def := DefaultAuditConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = def.WorkerCount
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = def.PublishTimeout
	}
	return &AuditManager{
		publisher:  publisher,
		log:        log,
		config:     config,
		inputChan:  make(chan AuditLogEntry, config.WorkerCount*config.BatchSize*2),
		batchChan:  make(chan []AuditLogEntry, config.WorkerCount*2),
		shutdownCh: make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.log.Info("starting audit manager", zap.Int("workers", m.config.WorkerCount))
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.config.WorkerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}

	go m.monitorShutdown(ctx)
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.log.Info("initiating audit manager shutdown")
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.log.Info("audit manager shutdown completed")
		case <-ctx.Done():
			m.log.Warn("audit manager shutdown interrupted")
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		m.Shutdown(context.Background())
	case <-m.shutdownCh:
	}
}

// LogEntry queues entry without blocking the request. A full queue drops the
// entry to the log.
func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.updatePendingCount(1)

	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emergencyLog(entry)
	default:
		metrics.AuditEventsDroppedTotal.Inc()
		m.emergencyLog(entry)
	}
}

// Pending is the number of entries accepted but not yet handed to a worker.
func (m *AuditManager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pendingCount
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		// drain whatever was queued before shutdown
		for {
			select {
			case entry := <-m.inputChan:
				batch = append(batch, entry)
				continue
			default:
			}
			break
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.config.BatchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(m.config.Timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	m.updatePendingCount(-len(batch))
	select {
	case m.batchChan <- batchCopy:
	default:
		m.publishBatch(-1, batchCopy)
	}
}

func (m *AuditManager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for batch := range m.batchChan {
		m.publishBatch(id, batch)
	}
	m.log.Debug("audit worker exiting", zap.Int("worker", id))
}

func (m *AuditManager) publishBatch(workerID int, batch []AuditLogEntry) {
	for _, entry := range batch {
		value, err := json.Marshal(entry)
		if err != nil {
			m.log.Error("failed to marshal audit entry", zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.config.PublishTimeout)
		err = m.publisher.Publish(ctx, []byte(entry.Handler), value)
		cancel()
		if err != nil {
			m.log.Error("failed to publish audit entry",
				zap.Int("worker", workerID),
				zap.String("handler", entry.Handler),
				zap.Error(err),
			)
		}
	}
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.log.Warn("audit entry not queued",
		zap.String("handler", entry.Handler),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status", entry.StatusCode),
		zap.String("username", entry.Username),
	)
	m.updatePendingCount(-1)
}

func (m *AuditManager) updatePendingCount(delta int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pendingCount += delta
}
