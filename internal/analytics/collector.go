// Package analytics ships index and query events to Kafka without blocking
// the caller. Events are buffered in memory and published in batches, either
// when a batch fills up or on a fixed interval.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/kafka"
)

// Tracker records events. The engine and shell depend on this rather than
// on the Kafka-backed Collector.
type Tracker interface {
	Track(eventType EventType, payload any)
}

type NopTracker struct{}

func (NopTracker) Track(EventType, any) {}

type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events and flushes them to a Publisher when BatchSize
// events are waiting, every FlushInterval, and once more on shutdown. At
// most BufferSize events are held; further events are dropped.
type Collector struct {
	publisher     Publisher
	sessionID     string
	batchSize     int
	maxBuffered   int
	flushInterval time.Duration
	logger        *slog.Logger

	flushCh chan struct{}
	stop    chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	buffer []kafka.Event
	closed bool
}

func NewCollector(publisher Publisher, cfg config.AnalyticsConfig, sessionID string) *Collector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BufferSize < cfg.BatchSize {
		cfg.BufferSize = cfg.BatchSize * 10
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		sessionID:     sessionID,
		batchSize:     cfg.BatchSize,
		maxBuffered:   cfg.BufferSize,
		flushInterval: cfg.FlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		flushCh:       make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		buffer:        make([]kafka.Event, 0, cfg.BatchSize),
	}
}

// Start launches the flush loop. Only the loop publishes, so batches go out
// one at a time and in order.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-c.flushCh:
				c.flush(ctx)
			case <-c.stop:
				c.finalFlush()
				return
			case <-ctx.Done():
				c.finalFlush()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"batch_size", c.batchSize,
		"buffer_size", c.maxBuffered,
		"flush_interval", c.flushInterval,
	)
}

// Track enqueues an event. It never blocks; events tracked after Close or
// while the buffer is full are discarded.
func (c *Collector) Track(eventType EventType, payload any) {
	event := Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: c.sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if len(c.buffer) >= c.maxBuffered {
		c.mu.Unlock()
		c.logger.Warn("analytics event dropped (buffer full)", "type", eventType)
		return
	}
	c.buffer = append(c.buffer, kafka.Event{Key: string(eventType), Value: event})
	full := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if full {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
}

// Close stops accepting events and waits for the final flush. Start must
// have been called.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.stop)
	c.mu.Unlock()
	<-c.done
}

// BufferLen returns the number of events waiting to be published.
func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// flush publishes everything buffered as one batch. A failed batch is put
// back in front of newer events, trimmed to the buffer limit.
func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("analytics batch flush failed", "batch_size", len(batch), "error", err)
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if len(c.buffer) > c.maxBuffered {
			dropped := len(c.buffer) - c.maxBuffered
			c.buffer = c.buffer[:c.maxBuffered]
			c.logger.Warn("analytics buffer overflow, events dropped", "dropped", dropped)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("analytics batch flushed", "events", len(batch))
}

func (c *Collector) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx)
}
