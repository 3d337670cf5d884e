package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind than this loses entries rather than stalling
// the emitting job.
const subscriberBuffer = 64

// Broker persists log entries and fans them out to per-job subscribers.
// Appends for one job are serialized by the caller (a job's pipeline is
// sequential), so entries reach subscribers in emission order.
type Broker struct {
	store  LogStore
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[uuid.UUID]map[int]chan Entry
	nextID int
	closed bool
}

// NewBroker creates a broker that persists entries to store.
func NewBroker(store LogStore, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		store:  store,
		logger: logger,
		subs:   make(map[uuid.UUID]map[int]chan Entry),
	}
}

// Append persists a log entry for jobID and notifies its subscribers.
// Persistence failures are returned after fan-out is skipped; the entry
// must be durable before anyone can observe it.
func (b *Broker) Append(ctx context.Context, jobID uuid.UUID, level Level, message string, metadata map[string]any) error {
	entry := Entry{
		ID:        uuid.New(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := b.store.AppendLog(ctx, &entry); err != nil {
		return err
	}

	b.logger.Debug("log entry appended",
		zap.String("job_id", jobID.String()),
		zap.String("level", string(level)),
		zap.String("message", message))

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[jobID] {
		select {
		case ch <- entry:
		default:
			// Slow subscriber; drop rather than block the pipeline.
		}
	}
	return nil
}

// Subscribe registers a live subscriber for jobID. It returns a channel
// delivering entries in emission order and a cancel function that must be
// called to release the subscription. Entries appended before Subscribe
// are not replayed; use Backfill for those.
func (b *Broker) Subscribe(jobID uuid.UUID) (<-chan Entry, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Entry, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[int]chan Entry)
	}
	b.subs[jobID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if chans, ok := b.subs[jobID]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
				if len(chans) == 0 {
					delete(b.subs, jobID)
				}
			}
		}
	}
	return ch, cancel
}

// Backfill returns the persisted entries for jobID in emission order.
func (b *Broker) Backfill(ctx context.Context, jobID uuid.UUID) ([]Entry, error) {
	return b.store.ListLogs(ctx, jobID)
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for jobID, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(b.subs, jobID)
	}
}
