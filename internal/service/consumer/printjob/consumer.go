package printjob

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jnardiello/printfarmhq-sub002/internal/converter"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type JobCompleter interface {
	Complete(ctx context.Context, id uuid.UUID) error
}

// Handler consumes printer-agent finish events and drives the job to
// completed. Malformed payloads and conflicting or missing jobs are logged
// and dropped: redelivering them can never succeed, and blocking the
// partition would stall every other job.
type Handler struct {
	jobs JobCompleter
}

func NewHandler(jobs JobCompleter) *Handler {
	return &Handler{jobs: jobs}
}

func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := converter.JobFinishedEventFromJSON(msg.Value)
	if err != nil {
		logger.Warn(ctx, "dropping malformed job finished event",
			logger.String("topic", msg.Topic),
			logger.Int64("offset", msg.Offset),
			logger.ErrorF(err),
		)
		return nil
	}

	log := logger.With(logger.String("job_id", event.JobID.String()))

	err = h.jobs.Complete(ctx, event.JobID)
	switch {
	case err == nil:
		log.Info(ctx, "job completed from finish event")
		return nil
	case errors.Is(err, model.ErrJobConflict):
		// Duplicate delivery or an operator already completed/cancelled it.
		log.Info(ctx, "ignoring finish event for terminal job")
		return nil
	case errors.Is(err, model.ErrJobNotFound):
		log.Warn(ctx, "finish event for unknown job")
		return nil
	default:
		return err
	}
}
