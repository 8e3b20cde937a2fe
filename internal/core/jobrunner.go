package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobKind names a unit of background work the orchestrator schedules.
type JobKind string

const (
	JobClean        JobKind = "clean"
	JobDomain       JobKind = "domain"
	JobRelationship JobKind = "relationship"
	JobView         JobKind = "view"
	JobKPI          JobKind = "kpi"
	JobDashboard    JobKind = "dashboard"
)

// Job is one unit of background work; Payload carries kind-specific
// identifiers (project/upload/cleaning-job IDs) as a JSON document so
// both runner implementations share one wire shape.
type Job struct {
	ID        string          `json:"id"`
	Kind      JobKind         `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
}

// JobHandler processes one Job. A returned error is logged; the runner
// does not retry automatically (§5: the orchestrator's caller decides
// whether to resubmit).
type JobHandler func(ctx context.Context, job Job) error

// JobRunner abstracts where background work actually executes, per §9's
// design note. InlineRunner runs synchronously in the caller's goroutine
// (suitable for a single-process deployment); RedisRunner pushes onto a
// durable queue for a separate worker process to drain.
type JobRunner interface {
	Enqueue(ctx context.Context, job Job) error
	Run(ctx context.Context, handler JobHandler) error
}

// InlineRunner executes every job immediately in the Enqueue call's
// goroutine. Run is a no-op since there is no separate worker loop.
type InlineRunner struct {
	handler JobHandler
}

func NewInlineRunner(handler JobHandler) *InlineRunner {
	return &InlineRunner{handler: handler}
}

func (r *InlineRunner) Enqueue(ctx context.Context, job Job) error {
	if r.handler == nil {
		return fmt.Errorf("inline runner: no handler configured")
	}
	return r.handler(ctx, job)
}

func (r *InlineRunner) Run(ctx context.Context, handler JobHandler) error {
	return nil
}

// RedisRunner queues jobs on a Redis list and drains them with BRPOP in
// Run, so one or more worker processes can share the queue.
type RedisRunner struct {
	client   *redis.Client
	queueKey string
}

// RedisRunnerConfig configures a RedisRunner's connection.
type RedisRunnerConfig struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
	PoolSize int
}

func NewRedisRunner(cfg RedisRunnerConfig) *RedisRunner {
	queueKey := cfg.QueueKey
	if queueKey == "" {
		queueKey = "pipeline:jobs"
	}
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})
	return &RedisRunner{client: client, queueKey: queueKey}
}

func (r *RedisRunner) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.client.LPush(ctx, r.queueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Run blocks, popping jobs with BRPOP and dispatching them to handler
// until ctx is cancelled.
func (r *RedisRunner) Run(ctx context.Context, handler JobHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := r.client.BRPop(ctx, 5*time.Second, r.queueKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("redis runner: brpop failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// result is [queueKey, payload]
		if len(result) != 2 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			slog.Error("redis runner: malformed job payload", "error", err)
			continue
		}
		if err := handler(ctx, job); err != nil {
			slog.Error("redis runner: job handler failed", "job_id", job.ID, "kind", job.Kind, "error", err)
		}
	}
}

func (r *RedisRunner) Close() error {
	return r.client.Close()
}
