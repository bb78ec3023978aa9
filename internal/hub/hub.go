package hub

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

const subscriberBuffer = 1024

// Enricher turns a tokenized record into an output row. It returns the
// number of warnings raised while doing so.
type Enricher interface {
	Enrich(rec model.Record, path string) (model.Row, int)
}

type subscriber struct {
	ch       chan model.Row
	lossless bool
}

// Hub receives raw records, enriches them, and broadcasts rows to all subscribers.
type Hub struct {
	enricher    Enricher
	input       <-chan model.RawRecord
	mu          sync.RWMutex
	subscribers []subscriber
	dropped     atomic.Int64
	warnings    atomic.Int64
}

// New creates a Hub that reads from the input channel and enriches with e.
func New(input <-chan model.RawRecord, e Enricher) *Hub {
	return &Hub{
		enricher: e,
		input:    input,
	}
}

// Subscribe returns a buffered channel that will receive enriched rows.
// Rows are dropped for this subscriber when its buffer is full.
func (h *Hub) Subscribe() <-chan model.Row {
	return h.subscribe(false)
}

// SubscribeLossless returns a channel that receives every row in input
// order. A slow lossless subscriber stalls the whole hub.
func (h *Hub) SubscribeLossless() <-chan model.Row {
	return h.subscribe(true)
}

func (h *Hub) subscribe(lossless bool) <-chan model.Row {
	ch := make(chan model.Row, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, subscriber{ch: ch, lossless: lossless})
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription.
func (h *Hub) Unsubscribe(ch <-chan model.Row) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subscribers {
		if s.ch == ch {
			close(s.ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Dropped returns the total number of rows dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Warnings returns the number of enrichment warnings raised so far.
func (h *Hub) Warnings() int64 {
	return h.warnings.Load()
}

// Start begins reading from the input channel, enriching, and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			row, n := h.enricher.Enrich(raw.Record, raw.Source)
			h.warnings.Add(int64(n))
			h.broadcast(ctx, row)
		}
	}
}

// broadcast sends a row to all subscribers.
// If a lossy subscriber's channel is full, the row is dropped for that subscriber.
func (h *Hub) broadcast(ctx context.Context, row model.Row) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subscribers {
		if s.lossless {
			select {
			case s.ch <- row:
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case s.ch <- row:
		default:
			n := h.dropped.Add(1)
			log.Printf("hub: dropped row for slow consumer (total dropped: %d)", n)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subscribers {
		close(s.ch)
	}
	h.subscribers = nil
}
