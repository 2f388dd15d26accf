package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
)

const queueMaintenance = "maintenance"

// Server runs the periodic cache purge through asynq: the scheduler enqueues
// the task and the server processes it. The task is unique per interval so
// several replicas scheduling the same tick enqueue it once.
type Server struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	handler   *CachePurgeHandler
	interval  time.Duration
	log       *slog.Logger
}

func NewServer(redisOpt asynq.RedisClientOpt, handler *CachePurgeHandler, interval time.Duration, log *slog.Logger) *Server {
	log = log.With(slog.String("component", "worker"))

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{queueMaintenance: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error("task failed",
				slog.String("task_type", task.Type()),
				slog.Int("retry", retry),
				slog.Int("max_retry", maxRetry),
				sl.Err(err),
			)
		}),
	})

	return &Server{
		server:    server,
		scheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{}),
		handler:   handler,
		interval:  interval,
		log:       log,
	}
}

// Start registers the purge schedule and starts processing. It returns once
// both the scheduler and the server are running.
func (s *Server) Start() error {
	task, err := NewCachePurgeTask(0)
	if err != nil {
		return fmt.Errorf("build purge task: %w", err)
	}

	cronspec := fmt.Sprintf("@every %s", s.interval)
	entryID, err := s.scheduler.Register(cronspec, task, asynq.Queue(queueMaintenance), asynq.Unique(s.interval))
	if err != nil {
		return fmt.Errorf("register purge schedule: %w", err)
	}
	s.log.Info("cache purge scheduled", slog.String("entry_id", entryID), slog.String("cron", cronspec))

	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCachePurge, s.handler.ProcessTask)
	if err := s.server.Start(mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		s.scheduler.Shutdown()
		return fmt.Errorf("start worker server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.server.Shutdown()
	s.log.Info("worker stopped")
}
