package bootstrap

import (
	"context"
	"net/http"
	"sync"
	"time"

	chclient "meridian/internal/adapters/clickhouse"
	"meridian/internal/adapters/kafka"
	pgclient "meridian/internal/adapters/postgres"
	redisclient "meridian/internal/adapters/redis"
	mlsentiment "meridian/internal/ml/sentiment"
	"meridian/internal/workers"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		// A full tenant quality scan may be mid-flight at shutdown.
		shutdownTimeout: 150 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in the correct order:
// 1. Metrics server stops accepting scrapes
// 2. Workers finish their current run
// 3. Kafka producer flushes pending events
// 4. ONNX session is released
// 5. Logs and errors flushed
// 6. Database connections last (earlier steps may still need them)
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	metricsServer *http.Server,
	workerScheduler *workers.Scheduler,
	kafkaProducer *kafka.Producer,
	onnxClassifier *mlsentiment.Classifier,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop Metrics Server (5s timeout)
	// ========================================
	log.Info("[1/7] Stopping metrics server...")
	if metricsServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := metricsServer.Shutdown(httpCtx); err != nil {
			log.Error("Metrics server shutdown failed", "error", err)
		} else {
			log.Info("✓ Metrics server stopped")
		}
		httpCancel()
	}

	// ========================================
	// Step 2: Stop Background Workers
	// ========================================
	log.Info("[2/7] Stopping background workers...")
	if workerScheduler != nil {
		if err := workerScheduler.Stop(); err != nil {
			log.Error("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	// ========================================
	// Step 3: Wait for goroutines
	// ========================================
	log.Info("[3/7] Waiting for goroutines...")
	l.waitWithTimeout(wg, 30*time.Second, log)

	// ========================================
	// Step 4: Close Kafka Producer
	// ========================================
	log.Info("[4/7] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	// ========================================
	// Step 5: Release ONNX Session
	// ========================================
	log.Info("[5/7] Releasing ML resources...")
	if onnxClassifier != nil {
		onnxClassifier.Close()
		log.Info("✓ ONNX session released")
	}

	// ========================================
	// Step 6: Flush Error Tracker & Logs
	// ========================================
	log.Info("[6/7] Flushing error tracker and logs...")
	if errorTracker != nil {
		flushCtx, flushCancel := context.WithTimeout(shutdownCtx, 2*time.Second)
		if err := errorTracker.Flush(flushCtx); err != nil {
			log.Error("Error tracker flush failed", "error", err)
		}
		flushCancel()
	}
	_ = log.Sync()

	// ========================================
	// Step 7: Close Database Connections
	// ========================================
	log.Info("[7/7] Closing database connections...")
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Redis close failed", "error", err)
		}
	}
	if chClient != nil {
		if err := chClient.Close(); err != nil {
			log.Error("ClickHouse close failed", "error", err)
		}
	}
	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			log.Error("PostgreSQL close failed", "error", err)
		}
	}
	log.Info("✓ Database connections closed")

	log.Info("✓ Shutdown complete")
}

// waitWithTimeout waits for the WaitGroup but gives up after the timeout
// so a stuck goroutine cannot block shutdown forever.
func (l *Lifecycle) waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warn("Timed out waiting for goroutines, continuing shutdown")
	}
}
