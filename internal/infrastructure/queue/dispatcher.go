// Package queue routes realtime notifications to sharded workers so each
// user's notifications are delivered in arrival order.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Publisher delivers a notification to its user's open streams.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the user id, guaranteeing per-user ordering.
type Dispatcher struct {
	workers []chan domain.Notification
	target  Publisher
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, target Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, numWorkers),
		target:  target,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands n to the worker responsible for its user. A full worker
// drops the notification instead of stalling the realtime reader.
func (d *Dispatcher) Enqueue(n domain.Notification) {
	idx := d.shardIndex(n.UserID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsDroppedTotal.Inc()
		d.log.Warn().Str("user_id", n.UserID).Int("worker_id", idx).Msg("notification queue full, dropping")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.target.Publish(ctx, n); err != nil {
				d.log.Error().Err(err).
					Str("user_id", n.UserID).
					Str("table", n.Table).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
		}
	}
}
