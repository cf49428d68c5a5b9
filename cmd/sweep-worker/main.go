// Entry point for the absence sweep worker. In "sqs" mode it consumes
// triggers from SWEEP_SQS_QUEUE_URL; in "schedule" mode it fires itself every
// day at SWEEP_AT.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/bootstrap"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/schedule"
	"attendance.service/internal/worker/sweep"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	workday, err := cfg.Policy()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid attendance policy")
	}

	shutdownTracer, err := telemetry.InitTracer("attendance-sweep-worker", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	deps, err := bootstrap.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening attendance store")
	}
	defer deps.Close()

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)

	var publisher messaging.EventPublisher = messaging.Discard{}
	if cfg.EventsSQSQueueURL != "" {
		publisher = messaging.NewSQSProducer(sqsClient, cfg.EventsSQSQueueURL)
	}
	sweeper := core.NewAbsenceSweeper(deps.Store, deps.Directory, workday, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	switch cfg.SweepMode {
	case "schedule":
		at, err := config.ParseClock(cfg.SweepAt)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid SWEEP_AT")
		}
		job := schedule.NewDaily("absence-sweep", at, workday.Location, func(ctx context.Context, firedAt time.Time) error {
			// Give up a minute before the next run so attempts never overlap.
			deadline := schedule.NextRun(firedAt.Add(time.Second), at, workday.Location).Add(-time.Minute)
			_, err := sweep.RunUntil(ctx, sweeper, firedAt, deadline, cfg.SweepRetryInterval)
			return err
		})
		go func() {
			job.Run(ctx)
			close(done)
		}()
	case "sqs":
		app := worker.NewWorker(sqsClient, cfg.SweepSQSQueueURL, sweep.NewProcessor(sweeper))
		// One sweep at a time; redeliveries are skipped by the store.
		app.Concurrency = 1
		go func() {
			app.Start(ctx)
			close(done)
		}()
	default:
		log.Fatal().Str("mode", cfg.SweepMode).Msg("Unknown SWEEP_MODE")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	cancel()
	<-done

	log.Info().Msg("Worker exited gracefully")
}
