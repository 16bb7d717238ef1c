package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTracksJobLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	q := NewRedisQueue(nil, db, "test:")
	ctx := context.Background()

	env := &Envelope{
		ID:         "shipment_" + uuid.NewString(),
		Queue:      QueueShipmentDelivered,
		Payload:    json.RawMessage(`{"shipment_id":"x"}`),
		MaxRetries: 3,
		RunAt:      time.Now().UTC(),
	}
	rowID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(env.ID))

	q.audit(ctx, env, models.JobStatusPending, "")
	q.audit(ctx, env, models.JobStatusProcessing, "")

	env.RetryCount = 1
	env.RunAt = time.Now().UTC().Add(time.Minute)
	q.audit(ctx, env, models.JobStatusPending, "boom")

	var job models.Job
	require.NoError(t, db.First(&job, "id = ?", rowID).Error)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "boom", job.Error)
	assert.NotNil(t, job.NextRetry)

	q.audit(ctx, env, models.JobStatusCompleted, "")
	require.NoError(t, db.First(&job, "id = ?", rowID).Error)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
