package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dissertation/internal/config"
	"dissertation/internal/logging"
	"dissertation/internal/metrics"
	"dissertation/internal/queue"
	"dissertation/internal/store"
)

// Worker consumes transition notifications and records them. Delivery
// is best-effort; the approval workflow never waits on it.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "dissertation:notifications")
	}

	notifications, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for notifications")
	for n := range notifications {
		metrics.NotificationsTotal.WithLabelValues(n.Type).Inc()
		logger.Info("transition notification",
			zap.String("type", n.Type),
			zap.String("request_id", n.RequestID),
			zap.String("status", n.Status),
			zap.String("student_id", n.StudentID),
			zap.String("professor_id", n.ProfessorID),
		)
	}

	logger.Info("worker stopped")
}
