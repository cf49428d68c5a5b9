package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// Sweeper is satisfied by core.AbsenceSweeper.
type Sweeper interface {
	Run(ctx context.Context, trigger time.Time) (model.SweepResult, error)
}

// SweepProcessor runs the absence sweep for each trigger read from the sweep
// queue. Triggers are delivered at least once; the sweep is idempotent.
type SweepProcessor struct {
	sweeper Sweeper
}

func NewProcessor(sweeper Sweeper) *SweepProcessor {
	return &SweepProcessor{sweeper: sweeper}
}

func (p *SweepProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty sweep trigger")
	}
	var trigger messaging.SweepTrigger
	if err := json.Unmarshal([]byte(*msg.Body), &trigger); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal sweep trigger")
		return false, 0, err
	}

	// A trigger without a time sweeps the day it was sent, so a late
	// redelivery does not sweep the following day.
	at := trigger.TriggeredAt
	if at.IsZero() {
		sent, ok := worker.SentAt(msg)
		if !ok {
			return false, 0, errors.New("sweep trigger has no triggeredAt and no SentTimestamp")
		}
		at = sent
	}

	result, err := p.sweeper.Run(ctx, at)
	if err != nil {
		return true, worker.RetryDelay(worker.ReceiveCount(msg)), fmt.Errorf("absence sweep failed: %w", err)
	}

	if err := incomplete(result); err != nil {
		// Users already marked are skipped on the next delivery.
		return true, worker.RetryDelay(worker.ReceiveCount(msg)), err
	}

	log.Ctx(ctx).Info().Str("day", result.Day.String()).Int("marked", result.MarkedCount).Msg("Absence sweep completed")
	return false, 0, nil
}
