package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Source is the queue a JobProcessor consumes
type Source interface {
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Envelope, error)
	Complete(ctx context.Context, env *Envelope) error
	Fail(ctx context.Context, env *Envelope, err error) error
}

// Handler processes a single job. Handlers must be idempotent: delivery is
// at-least-once.
type Handler func(ctx context.Context, env *Envelope) error

// JobProcessor runs a pool of workers over one or more queues
type JobProcessor struct {
	source         Source
	handlers       map[string]Handler
	queues         []string
	workerCount    int
	pollTimeout    time.Duration
	wg             sync.WaitGroup
	processingJobs sync.Map
	cancel         context.CancelFunc
}

// NewJobProcessor creates a new JobProcessor
func NewJobProcessor(source Source, workerCount int) *JobProcessor {
	if workerCount < 1 {
		workerCount = 1
	}
	return &JobProcessor{
		source:      source,
		handlers:    make(map[string]Handler),
		workerCount: workerCount,
		pollTimeout: time.Second,
	}
}

// RegisterHandler registers a handler for a specific queue. Call before Start.
func (p *JobProcessor) RegisterHandler(queueName string, handler Handler) {
	if _, exists := p.handlers[queueName]; !exists {
		p.queues = append(p.queues, queueName)
	}
	p.handlers[queueName] = handler
}

// Start starts the workers. They run until Stop is called or ctx is done.
func (p *JobProcessor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	log.Printf("[jobs] starting job processor with %d workers on %v", p.workerCount, p.queues)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop stops the workers and waits for in-flight jobs
func (p *JobProcessor) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	log.Println("[jobs] job processor stopped")
}

func (p *JobProcessor) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	if len(p.queues) == 0 {
		log.Printf("[jobs] worker %d exiting: no queues registered", id)
		return
	}

	for {
		for _, queueName := range p.queues {
			select {
			case <-ctx.Done():
				return
			default:
			}

			env, err := p.source.Dequeue(ctx, queueName, p.pollTimeout)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[jobs] worker %d error getting job from %s: %v", id, queueName, err)
				time.Sleep(time.Second)
				continue
			}
			if env == nil {
				continue
			}

			if err := p.ProcessJob(ctx, env); err != nil {
				log.Printf("[jobs] worker %d: %v", id, err)
			}
		}
	}
}

// ProcessJob runs the handler for env and acknowledges the result
func (p *JobProcessor) ProcessJob(ctx context.Context, env *Envelope) error {
	if env == nil {
		return fmt.Errorf("nil job")
	}

	p.processingJobs.Store(env.ID, true)
	defer p.processingJobs.Delete(env.ID)

	handler, ok := p.handlers[env.Queue]
	if !ok {
		err := fmt.Errorf("no handler registered for queue: %s", env.Queue)
		if failErr := p.source.Fail(ctx, env, err); failErr != nil {
			log.Printf("[jobs] error marking job %s as failed: %v", env.ID, failErr)
		}
		return err
	}

	if err := handler(ctx, env); err != nil {
		if failErr := p.source.Fail(ctx, env, err); failErr != nil {
			log.Printf("[jobs] error marking job %s as failed: %v", env.ID, failErr)
		}
		return fmt.Errorf("job %s on %s failed: %w", env.ID, env.Queue, err)
	}

	if err := p.source.Complete(ctx, env); err != nil {
		log.Printf("[jobs] error marking job %s as completed: %v", env.ID, err)
	}
	return nil
}

// IsProcessing checks if a job is currently being processed
func (p *JobProcessor) IsProcessing(jobID string) bool {
	_, ok := p.processingJobs.Load(jobID)
	return ok
}
