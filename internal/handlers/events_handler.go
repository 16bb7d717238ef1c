package handlers

import (
	"context"
	"net/http"

	"github.com/freightlink/backend/internal/jobs"
	"github.com/freightlink/backend/internal/queue"
	"github.com/gin-gonic/gin"
)

// EventQueue is the job queue behind the events endpoints
type EventQueue interface {
	jobs.Enqueuer
	Stats(ctx context.Context, queueName string) (*queue.QueueStats, error)
}

// EventsHandler accepts marketplace business events and queues them
type EventsHandler struct {
	queue      EventQueue
	maxRetries int
}

// NewEventsHandler creates a new events handler. maxRetries <= 0 keeps the
// queue default.
func NewEventsHandler(q EventQueue, maxRetries int) *EventsHandler {
	return &EventsHandler{queue: q, maxRetries: maxRetries}
}

// ShipmentDelivered queues a shipment delivered event for processing
func (h *EventsHandler) ShipmentDelivered(c *gin.Context) {
	var payload jobs.ShipmentDeliveredPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var opts []queue.EnqueueOption
	if h.maxRetries > 0 {
		opts = append(opts, queue.WithMaxRetry(h.maxRetries))
	}

	jobID, err := jobs.EnqueueShipmentDelivered(c.Request.Context(), h.queue, payload, opts...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// QueueStats reports the waiting, delayed, processing and failed counts of a
// known event queue
func (h *EventsHandler) QueueStats(c *gin.Context) {
	name := c.Param("queue")
	if name != queue.QueueShipmentDelivered {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown queue"})
		return
	}

	stats, err := h.queue.Stats(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
