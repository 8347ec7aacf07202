package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drbrain/dashboard/internal/core/domain"
)

type recordingPublisher struct {
	mu  sync.Mutex
	got map[string][]string
}

func (p *recordingPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got[n.UserID] = append(p.got[n.UserID], string(n.Record))
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, v := range p.got {
		total += len(v)
	}
	return total
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	pub := &recordingPublisher{got: map[string][]string{}}
	d := NewDispatcher(4, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	users := []string{"user-1", "user-2", "user-3"}
	const perUser = 50
	for i := 0; i < perUser; i++ {
		for _, u := range users {
			d.Enqueue(domain.Notification{UserID: u, Table: "messages", Record: []byte(fmt.Sprintf("%d", i))})
		}
	}

	require.Eventually(t, func() bool { return pub.count() == perUser*len(users) }, 2*time.Second, 5*time.Millisecond)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for _, u := range users {
		for i, rec := range pub.got[u] {
			assert.Equal(t, fmt.Sprintf("%d", i), rec, "user %s out of order", u)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingPublisher{}, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
	idx := d.shardIndex("user-1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, idx, d.shardIndex("user-1"))
	}
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, defaultWorkers)
}

func TestDispatcher_FullWorkerDrops(t *testing.T) {
	pub := &recordingPublisher{got: map[string][]string{}}
	d := NewDispatcher(1, pub, zerolog.Nop())

	// Not started: the single worker's buffer fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Enqueue(domain.Notification{UserID: "user-1"})
	}
	assert.Len(t, d.workers[0], channelBuffer)
}
