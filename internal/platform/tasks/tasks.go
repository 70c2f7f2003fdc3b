package tasks

import (
	"mediadash/internal/platform/redis"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeScrape = "scrape:task"
	TaskTypeLogin  = "login:task"
)

// Enqueuer is the narrow surface the orchestrator needs to hand work to
// the background lane. Tests swap in an inline implementation.
type Enqueuer interface {
	Enqueue(task *asynq.Task, queue string, maxRetries int) error
}

type Client struct{ c *asynq.Client }

func New(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(task *asynq.Task, queue string, maxRetries int) error {
	_, err := t.c.Enqueue(task, asynq.Queue(queue), asynq.MaxRetry(maxRetries))
	return err
}

func (t *Client) Close() error { return t.c.Close() }
