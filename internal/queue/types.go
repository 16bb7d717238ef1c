package queue

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"
)

const (
	// QueueShipmentDelivered carries "shipment delivered" events from the marketplace
	QueueShipmentDelivered = "shipment_delivered"

	DefaultRetryCount = 5
	DefaultTTL        = 24 * time.Hour
)

// Envelope is the job representation stored in Redis
type Envelope struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RunAt      time.Time       `json:"run_at"`
	DequeuedAt time.Time       `json:"dequeued_at,omitempty"`
}

// Decode unmarshals the payload into v
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// QueueStats represents statistics for a queue
type QueueStats struct {
	Queue      string `json:"queue"`
	Waiting    int64  `json:"waiting"`
	Processing int64  `json:"processing"`
	Delayed    int64  `json:"delayed"`
	Failed     int64  `json:"failed"`
}

// EnqueueOptions represents options for enqueueing a job
type EnqueueOptions struct {
	delay    time.Duration
	maxRetry int
	jobID    string
}

// EnqueueOption is a function that modifies EnqueueOptions
type EnqueueOption func(*EnqueueOptions)

// WithDelay adds a delay to a job
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.delay = delay
	}
}

// WithMaxRetry sets the maximum number of retries for a job
func WithMaxRetry(maxRetry int) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.maxRetry = maxRetry
	}
}

// WithJobID sets the job id, e.g. to make an upstream event id the job id
func WithJobID(id string) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.jobID = id
	}
}

func buildOptions(opts []EnqueueOption) EnqueueOptions {
	options := EnqueueOptions{maxRetry: DefaultRetryCount}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// calculateBackoff returns the delay before retry n: 5s doubling up to 1h, ±20% jitter
func calculateBackoff(retry int) time.Duration {
	base := 5.0
	ceiling := 3600.0

	seconds := math.Min(ceiling, base*math.Pow(2, float64(retry)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds * float64(time.Second))
}
