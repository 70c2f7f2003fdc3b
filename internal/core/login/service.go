package login

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"mediadash/internal/logger"
	"mediadash/internal/platform/engine"
	tasks "mediadash/internal/platform/tasks"
)

// Service schedules handshake runs on the background lane so the request
// path returns immediately while the operator scans the QR code.
type Service struct {
	monitor *Monitor
	tasks   tasks.Enqueuer
	log     *logger.Logger
}

func NewService(monitor *Monitor, t tasks.Enqueuer) *Service {
	return &Service{monitor: monitor, tasks: t, log: logger.New("LoginService")}
}

// TaskPayload identifies one handshake attempt. The session id tags the
// QR artifact so polling clients can match image to attempt.
type TaskPayload struct {
	SessionID string          `json:"session_id"`
	Platform  engine.Platform `json:"platform"`
}

func (s *Service) Enqueue(ctx context.Context, platform engine.Platform) (string, error) {
	if _, ok := profiles[platform]; !ok {
		return "", fmt.Errorf("no login profile for platform %q", platform)
	}
	sessionID := uuid.New().String()
	payload, _ := json.Marshal(TaskPayload{SessionID: sessionID, Platform: platform})
	task := asynq.NewTask(tasks.TaskTypeLogin, payload)
	// A handshake is interactive: retrying it without the operator makes
	// no sense, so max retries is pinned to zero.
	if err := s.tasks.Enqueue(task, "default", 0); err != nil {
		return "", err
	}
	s.log.LogInfof("scheduled %s login handshake (session %s)", platform, sessionID)
	return sessionID, nil
}

// HandleLoginTask runs one handshake. Failures are terminal for that
// attempt only: they are reported and absorbed, and any prior session
// stays intact.
func (s *Service) HandleLoginTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	if err := s.monitor.Run(ctx, p.Platform, p.SessionID); err != nil {
		s.log.LogErrorf("%s login handshake failed (session %s): %v", p.Platform, p.SessionID, err)
		return nil
	}
	return nil
}
