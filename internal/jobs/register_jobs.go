package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/freightlink/backend/internal/queue"
	"github.com/go-co-op/gocron"
)

// RegisterAllJobHandlers registers all queue handlers with the processor
func RegisterAllJobHandlers(processor *queue.JobProcessor, shipments *ShipmentDeliveredJob) {
	processor.RegisterHandler(queue.QueueShipmentDelivered, shipments.Handle)
}

// ScheduleRecurringJobs starts the recurring jobs and returns the running scheduler
func ScheduleRecurringJobs(ctx context.Context, reconciliation *ReconciliationJob, every time.Duration) (*gocron.Scheduler, error) {
	if every <= 0 {
		return nil, fmt.Errorf("invalid reconciliation interval: %s", every)
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(every).Tag("reconciliation").Do(func() {
		if _, err := reconciliation.Run(ctx); err != nil {
			log.Printf("[jobs] reconciliation run failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	scheduler.StartAsync()
	log.Printf("[jobs] reconciliation scheduled every %s", every)
	return scheduler, nil
}

// StaleSweeper requeues jobs left in processing by a crashed worker
type StaleSweeper interface {
	RequeueStale(ctx context.Context, queueName string, olderThan time.Duration) (int, error)
}

// ScheduleStaleSweep adds a sweep of each queue's processing entries to
// scheduler. The sweep runs twice per staleAfter.
func ScheduleStaleSweep(ctx context.Context, scheduler *gocron.Scheduler, sweeper StaleSweeper, staleAfter time.Duration, queues ...string) error {
	if staleAfter <= 0 {
		return fmt.Errorf("invalid stale processing threshold: %s", staleAfter)
	}

	_, err := scheduler.Every(staleAfter / 2).Tag("stale-sweep").Do(func() {
		for _, queueName := range queues {
			if _, err := sweeper.RequeueStale(ctx, queueName, staleAfter); err != nil {
				log.Printf("[jobs] stale sweep of %s failed: %v", queueName, err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stale sweep: %w", err)
	}

	log.Printf("[jobs] stale processing sweep scheduled, threshold %s", staleAfter)
	return nil
}
