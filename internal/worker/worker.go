// Package worker processes queued email jobs from Redis.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/brickstudio/backend/internal/reviews"
	"github.com/brickstudio/backend/pkg/queue"
)

// Worker consumes email jobs and delivers them via the mailer.
type Worker struct {
	queue  *queue.Queue
	mailer Mailer
	repo   *reviews.Repository
	logger *zap.Logger
}

// New creates a worker.
func New(q *queue.Queue, mailer Mailer, repo *reviews.Repository, logger *zap.Logger) *Worker {
	return &Worker{queue: q, mailer: mailer, repo: repo, logger: logger}
}

// Run blocks processing jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("email worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("email worker stopping")
			return ctx.Err()
		default:
		}
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		if err := w.process(ctx, job); err != nil {
			w.logger.Warn("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if err := w.queue.Retry(ctx, job); err != nil {
				w.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeReviewRequest:
		return w.processReviewRequest(ctx, job)
	default:
		w.logger.Warn("unknown job type dropped", zap.String("type", string(job.Type)))
		return nil
	}
}

func (w *Worker) processReviewRequest(ctx context.Context, job *queue.Job) error {
	var p queue.ReviewRequestPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		w.logger.Warn("malformed payload dropped", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	subject := fmt.Sprintf("How was %q?", p.WorkshopTitle)
	body := reviewRequestBody(p)
	if err := w.mailer.Send(p.Recipient, subject, body); err != nil {
		w.logBest(ctx, p, "failed", err.Error())
		return err
	}
	w.logBest(ctx, p, "sent", "")
	w.logger.Info("review request sent",
		zap.String("workshop_id", p.WorkshopID.String()),
		zap.String("recipient", p.Recipient))
	return nil
}

func (w *Worker) logBest(ctx context.Context, p queue.ReviewRequestPayload, status, errMsg string) {
	if w.repo == nil {
		return
	}
	if err := w.repo.LogEmail(ctx, p.WorkshopID, p.Recipient, string(queue.JobTypeReviewRequest), status, errMsg); err != nil {
		w.logger.Warn("log email", zap.Error(err))
	}
}

func reviewRequestBody(p queue.ReviewRequestPayload) string {
	greeting := "Hi"
	if p.ClientName != "" {
		greeting = "Hi " + p.ClientName
	}
	return fmt.Sprintf(`%s,

Thanks for building with us at %q.

We would love to hear how it went. Leaving a short review takes a minute:

%s

Best,
Brick Studio
`, greeting, p.WorkshopTitle, p.ReviewURL)
}
