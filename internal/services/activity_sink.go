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

const (
	TaskTypeActivity = "activity:record"
)

// ActivitySink receives activity entries. Record never fails the caller:
// write errors are logged and dropped.
type ActivitySink interface {
	Record(entry *ActivityEntry)
	// IsAsync reports whether entries go through the Redis queue
	IsAsync() bool
	Close() error
}

// InitActivitySink returns the queue-backed sink when Redis is enabled and
// reachable, otherwise the direct database sink.
func InitActivitySink(cfg *config.Config, db *gorm.DB) ActivitySink {
	direct := NewDBActivitySink(db)
	if !cfg.Redis.Enabled {
		logger.Infof("[ActivitySink] Direct database sink (Redis disabled)")
		return direct
	}

	sink, err := NewAsyncActivitySink(&cfg.Redis, direct)
	if err != nil {
		logger.Infof("[ActivitySink] Redis unavailable, falling back to database sink: %v", err)
		return direct
	}
	logger.Infof("[ActivitySink] Async sink initialized with Redis at %s", cfg.Redis.Addr)
	return sink
}

// DBActivitySink writes entries from a background goroutine.
type DBActivitySink struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewDBActivitySink(db *gorm.DB) *DBActivitySink {
	return &DBActivitySink{db: db}
}

func (s *DBActivitySink) Record(entry *ActivityEntry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := writeActivity(context.Background(), s.db, entry); err != nil {
			logger.Warn().Err(err).Str("action", entry.Action).Msg("[ActivitySink] write failed")
		}
	}()
}

func (s *DBActivitySink) IsAsync() bool {
	return false
}

// Close waits for pending writes.
func (s *DBActivitySink) Close() error {
	s.wg.Wait()
	return nil
}

// AsyncActivitySink enqueues entries for ActivityWorker.
type AsyncActivitySink struct {
	client   *asynq.Client
	fallback *DBActivitySink
}

func NewAsyncActivitySink(cfg *config.RedisConfig, fallback *DBActivitySink) (*AsyncActivitySink, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncActivitySink{client: client, fallback: fallback}, nil
}

func (s *AsyncActivitySink) Record(entry *ActivityEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		logger.Warn().Err(err).Msg("[ActivitySink] encode failed")
		return
	}

	t := asynq.NewTask(TaskTypeActivity, payload)
	if _, err := s.client.Enqueue(t, asynq.Queue("default"), asynq.MaxRetry(3)); err != nil {
		logger.Warn().Err(err).Msg("[ActivitySink] enqueue failed, writing directly")
		if s.fallback != nil {
			s.fallback.Record(entry)
		}
	}
}

func (s *AsyncActivitySink) IsAsync() bool {
	return true
}

func (s *AsyncActivitySink) Close() error {
	if s.fallback != nil {
		s.fallback.Close()
	}
	return s.client.Close()
}
