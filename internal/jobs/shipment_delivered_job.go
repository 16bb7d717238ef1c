package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/queue"
	"github.com/freightlink/backend/internal/referral"
	"github.com/google/uuid"
)

// ShipmentDeliveredPayload is published by the marketplace when a shipment is delivered
type ShipmentDeliveredPayload struct {
	ShipmentID    uuid.UUID  `json:"shipment_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	ForwarderID   *uuid.UUID `json:"forwarder_id,omitempty"`
	FirstShipment bool       `json:"first_shipment"`
}

// Validate checks the required fields
func (p ShipmentDeliveredPayload) Validate() error {
	if p.ShipmentID == uuid.Nil {
		return errors.New("shipment_id is required")
	}
	if p.ClientID == uuid.Nil {
		return errors.New("client_id is required")
	}
	return nil
}

// Rewards supplies reward amounts at the time the event is handled
type Rewards interface {
	ShipmentRewardPoints(ctx context.Context) int64
	ReferralBonus(ctx context.Context) int64
}

// ShipmentDeliveredJob credits shipment rewards and qualifies referrals.
// Every step is idempotent, so redelivered events are harmless.
type ShipmentDeliveredJob struct {
	ledger    *loyalty.Engine
	referrals *referral.Resolver
	rewards   Rewards
}

// NewShipmentDeliveredJob creates a new shipment delivered job handler
func NewShipmentDeliveredJob(ledger *loyalty.Engine, referrals *referral.Resolver, rewards Rewards) *ShipmentDeliveredJob {
	return &ShipmentDeliveredJob{
		ledger:    ledger,
		referrals: referrals,
		rewards:   rewards,
	}
}

// Handle is the queue handler
func (j *ShipmentDeliveredJob) Handle(ctx context.Context, env *queue.Envelope) error {
	var payload ShipmentDeliveredPayload
	if err := env.Decode(&payload); err != nil {
		return fmt.Errorf("failed to parse shipment delivered payload: %w", err)
	}
	return j.Process(ctx, payload)
}

// Process applies a delivered shipment to the loyalty state
func (j *ShipmentDeliveredJob) Process(ctx context.Context, payload ShipmentDeliveredPayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	points := j.rewards.ShipmentRewardPoints(ctx)
	if points > 0 {
		recipients := []uuid.UUID{payload.ClientID}
		if payload.ForwarderID != nil && *payload.ForwarderID != uuid.Nil {
			recipients = append(recipients, *payload.ForwarderID)
		}
		for _, userID := range recipients {
			_, awarded, err := j.ledger.AwardShipment(ctx, userID, payload.ShipmentID, points)
			if err != nil {
				return fmt.Errorf("error rewarding shipment %s to %s: %w", payload.ShipmentID, userID, err)
			}
			if awarded {
				log.Printf("[jobs] shipment %s rewarded %d points to %s", payload.ShipmentID, points, userID)
			}
		}
	}

	if payload.FirstShipment {
		event := referral.QualifyingEvent{
			Name:      referral.EventFirstShipment,
			Reference: payload.ShipmentID.String(),
		}
		if _, err := j.referrals.Qualify(ctx, payload.ClientID, event, j.rewards.ReferralBonus(ctx)); err != nil {
			return err
		}
	}

	return nil
}

// Enqueuer is the producer side of the job queue
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}, opts ...queue.EnqueueOption) (string, error)
}

// EnqueueShipmentDelivered validates and publishes a shipment delivered event
func EnqueueShipmentDelivered(ctx context.Context, q Enqueuer, payload ShipmentDeliveredPayload, opts ...queue.EnqueueOption) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	opts = append([]queue.EnqueueOption{queue.WithJobID("shipment_" + payload.ShipmentID.String())}, opts...)
	return q.Enqueue(ctx, queue.QueueShipmentDelivered, payload, opts...)
}
