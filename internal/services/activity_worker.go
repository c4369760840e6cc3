package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"gorm.io/gorm"
)

// ActivityWorker drains queued activity entries into the database.
type ActivityWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	db      *gorm.DB
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewActivityWorker returns nil when Redis is disabled.
func NewActivityWorker(cfg *config.RedisConfig, db *gorm.DB) *ActivityWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[ActivityWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &ActivityWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		db:     db,
	}
}

func (w *ActivityWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeActivity, w.HandleActivityTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[ActivityWorker] Starting...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[ActivityWorker] Server error: %v", err)
		}
	}()

	return nil
}

func (w *ActivityWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[ActivityWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[ActivityWorker] Shutdown complete")
}

// HandleActivityTask writes one queued entry. Undecodable payloads are
// skipped rather than retried.
func (w *ActivityWorker) HandleActivityTask(ctx context.Context, t *asynq.Task) error {
	var entry ActivityEntry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		logger.Warnf("[ActivityWorker] Failed to unmarshal task: %v", err)
		return asynq.SkipRetry
	}
	return writeActivity(ctx, w.db, &entry)
}
