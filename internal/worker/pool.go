package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/metrics"
)

// ErrQueueFull is returned by Submit when the queue cannot take another task
var ErrQueueFull = errors.New("worker pool queue full (backpressure)")

// ClickTask represents a landing page click to persist
type ClickTask struct {
	Code string
	IP   string
}

// ClickRecorder persists clicks; it reports false when the click was a repeat
type ClickRecorder interface {
	RecordClick(ctx context.Context, code, ip string) (bool, error)
}

// WorkerPool manages a pool of workers for fire-and-forget click tracking
type WorkerPool struct {
	jobs        chan ClickTask
	workerCount int
	recorder    ClickRecorder
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stats       *PoolStats
	metrics     *metrics.Metrics

	// mu guards closed against concurrent Submit and Shutdown
	mu     sync.RWMutex
	closed bool
}

// PoolStats tracks worker pool performance
type PoolStats struct {
	mu              sync.RWMutex
	processed       int64
	duplicates      int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// Snapshot is a point-in-time copy of PoolStats
type Snapshot struct {
	Processed         int64  `json:"processed"`
	Duplicates        int64  `json:"duplicates"`
	Failed            int64  `json:"failed"`
	Backpressure      int64  `json:"backpressure_events"`
	AvgProcessingTime string `json:"avg_processing_time"`
	QueueUtilization  string `json:"queue_utilization"`
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, recorder ClickRecorder, m *metrics.Metrics) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		jobs:        make(chan ClickTask, queueSize),
		workerCount: workerCount,
		recorder:    recorder,
		ctx:         ctx,
		cancel:      cancel,
		stats:       &PoolStats{},
		metrics:     m,
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() {
	log.WithFields(log.Fields{
		"workers":    wp.workerCount,
		"queue_size": cap(wp.jobs),
	}).Info("Starting worker pool")

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker is the main worker loop that processes jobs
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			log.WithField("worker", id).Debug("Worker shutting down")
			return

		case task, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processTask(id, task)
		}
	}
}

// processTask handles a single click with panic recovery
func (wp *WorkerPool) processTask(workerID int, task ClickTask) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"worker": workerID, "code": task.Code}).Errorf("Worker panic recovered: %v", r)
			wp.stats.incrementFailed()
			wp.metrics.ClickTasks.WithLabelValues("failed").Inc()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(wp.ctx, 5*time.Second)
	defer cancel()

	created, err := wp.recorder.RecordClick(ctx, task.Code, task.IP)
	processingTime := time.Since(startTime)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"worker": workerID,
			"code":   task.Code,
			"took":   processingTime,
		}).Error("Failed to record referral click")
		wp.stats.incrementFailed()
		wp.metrics.ClickTasks.WithLabelValues("failed").Inc()
		return
	}

	if !created {
		wp.stats.incrementDuplicate()
		wp.metrics.ClickTasks.WithLabelValues("duplicate").Inc()
		return
	}

	wp.stats.recordSuccess(processingTime)
	wp.metrics.ClickTasks.WithLabelValues("processed").Inc()
}

// Submit attempts to add a task to the queue with backpressure handling
func (wp *WorkerPool) Submit(task ClickTask) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return fmt.Errorf("worker pool is shut down")
	}

	select {
	case wp.jobs <- task:
		return nil

	default:
		log.WithField("code", task.Code).Warn("Backpressure: queue full, dropping referral click")
		wp.stats.incrementBackpressure()
		wp.metrics.ClickTasks.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Shutdown gracefully stops the worker pool, draining queued clicks until timeout
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	log.Info("Shutting down worker pool...")

	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobs)
	}
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logStats()
		return nil

	case <-time.After(timeout):
		wp.cancel() // Force cancel remaining operations
		log.WithField("timeout", timeout).Warn("Worker pool shutdown timed out")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// Stats returns a snapshot of the pool statistics
func (wp *WorkerPool) Stats() Snapshot {
	wp.stats.mu.RLock()
	defer wp.stats.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.stats.processed > 0 {
		avgProcessing = wp.stats.totalProcessing / time.Duration(wp.stats.processed)
	}

	return Snapshot{
		Processed:         wp.stats.processed,
		Duplicates:        wp.stats.duplicates,
		Failed:            wp.stats.failed,
		Backpressure:      wp.stats.backpressure,
		AvgProcessingTime: avgProcessing.String(),
		QueueUtilization:  fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

func (wp *WorkerPool) logStats() {
	s := wp.Stats()
	log.WithFields(log.Fields{
		"processed":    s.Processed,
		"duplicates":   s.Duplicates,
		"failed":       s.Failed,
		"backpressure": s.Backpressure,
		"avg":          s.AvgProcessingTime,
	}).Info("Worker pool stopped")
}

func (ps *PoolStats) recordSuccess(duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.processed++
	ps.totalProcessing += duration
}

func (ps *PoolStats) incrementDuplicate() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.duplicates++
}

func (ps *PoolStats) incrementFailed() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.failed++
}

func (ps *PoolStats) incrementBackpressure() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.backpressure++
}
