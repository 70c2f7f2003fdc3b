package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"mediadash/internal/config"
	"mediadash/internal/core/job"
	"mediadash/internal/logger"
	"mediadash/internal/platform/api"
	"mediadash/internal/platform/engine"
	tasks "mediadash/internal/platform/tasks"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Progress markers assigned by the orchestrator. Progress is coarse: the
// crawl engines report nothing back while they run.
const (
	progressPickedUp = 10
	progressApplied  = 40
	progressDone     = 100
)

// Service is the job orchestrator: it registers records, hands execution
// to the background lane and drives each record through its lifecycle.
type Service struct {
	store    *job.Store
	tasks    tasks.Enqueuer
	engines  *engine.Registry
	log      *logger.Logger
	cfg      config.Config
	validate *validator.Validate
}

func NewService(store *job.Store, t tasks.Enqueuer, engines *engine.Registry, cfg config.Config) *Service {
	return &Service{
		store:    store,
		tasks:    t,
		engines:  engines,
		log:      logger.New("CrawlService"),
		cfg:      cfg,
		validate: validator.New(),
	}
}

// TaskPayload carries the full per-job parameter bundle through the task
// queue. No ambient configuration is consulted at execution time, so two
// jobs dispatched back to back cannot leak parameters into each other.
type TaskPayload struct {
	JobID  string        `json:"job_id"`
	Params engine.Params `json:"params"`
}

// Submit validates the request, registers a queued record and enqueues
// the job on the background lane. It returns as soon as the task is
// accepted; the crawl itself may take minutes.
func (s *Service) Submit(ctx context.Context, req api.JobCreateRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	platform := engine.Platform(req.Platform)
	if !platform.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, req.Platform)
	}

	maxNotes := req.MaxNotes
	if maxNotes <= 0 {
		maxNotes = 15
	}
	mode := engine.CrawlMode(req.CrawlerType)
	if mode == "" {
		mode = engine.ModeSearch
	}

	params := engine.Params{
		Platform:    platform,
		Keywords:    req.Keywords,
		MaxNotes:    maxNotes,
		GetComments: req.GetComments,
		Mode:        mode,
	}

	now := time.Now()
	id, err := s.register(platform, params, now)
	if err != nil {
		return "", err
	}

	payload, _ := json.Marshal(TaskPayload{JobID: id, Params: params})
	task := asynq.NewTask(tasks.TaskTypeScrape, payload)
	if err := s.tasks.Enqueue(task, "default", s.cfg.TaskMaxRetries); err != nil {
		s.store.Discard(id)
		return "", fmt.Errorf("enqueue job %s: %w", id, err)
	}
	s.log.LogInfof("enqueued job %s (%s %q, max %d)", id, platform, params.Keywords, maxNotes)
	return id, nil
}

// register allocates a platform_timestamp id and claims it in the store.
// Uniqueness of the id is advisory; two submissions within the same
// second get a numeric suffix.
func (s *Service) register(platform engine.Platform, params engine.Params, now time.Time) (string, error) {
	base := fmt.Sprintf("%s_%s", platform, now.Format("20060102_150405"))
	id := base
	for i := 2; ; i++ {
		err := s.store.Register(job.Record{
			ID:        id,
			Platform:  platform,
			Params:    params,
			Status:    job.StatusQueued,
			Progress:  0,
			CreatedAt: now,
		})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, job.ErrExists) {
			return "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

// HandleScrapeTask runs one job to its terminal state on a background
// lane. Every engine error is job-scoped: it is recorded on the job and
// absorbed here, so the handler always returns nil and asynq never
// retries a terminal job.
func (s *Service) HandleScrapeTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}

	if err := s.store.Update(p.JobID, func(r *job.Record) {
		r.Status = job.StatusRunning
		r.Progress = progressPickedUp
	}); err != nil {
		s.log.LogWarnf("job %s vanished before pickup: %v", p.JobID, err)
		return nil
	}
	s.log.LogInfof("starting job %s", p.JobID)

	eng, err := s.engines.Resolve(p.Params.Platform)
	if err != nil {
		s.fail(p.JobID, err.Error())
		return nil
	}

	_ = s.store.Update(p.JobID, func(r *job.Record) { r.Progress = progressApplied })

	if err := s.runEngine(ctx, eng, p.Params); err != nil {
		s.log.LogErrorf("job %s failed: %v", p.JobID, err)
		s.fail(p.JobID, err.Error())
		return nil
	}

	completedAt := time.Now()
	_ = s.store.Update(p.JobID, func(r *job.Record) {
		r.Status = job.StatusCompleted
		r.Progress = progressDone
		r.CompletedAt = &completedAt
	})
	if err := s.store.Archive(p.JobID); err != nil {
		s.log.LogWarnf("archive job %s: %v", p.JobID, err)
	}
	s.log.LogInfof("job %s completed", p.JobID)
	return nil
}

// runEngine invokes the crawl engine's Start contract. A panicking
// engine is converted into a job-scoped error rather than taking down
// the process.
func (s *Service) runEngine(ctx context.Context, eng engine.Engine, params engine.Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl engine panic: %v", r)
		}
	}()
	return eng.Start(ctx, params)
}

func (s *Service) fail(id, msg string) {
	_ = s.store.Update(id, func(r *job.Record) {
		r.Status = job.StatusFailed
		r.Progress = 0
		r.Error = msg
	})
	if err := s.store.Archive(id); err != nil {
		s.log.LogWarnf("archive job %s: %v", id, err)
	}
}
