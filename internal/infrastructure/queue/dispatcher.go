package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithBuffer sets the per-worker queue capacity.
func WithBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.buffer = n
		}
	}
}

// WithDropCounter counts events discarded because a queue was full or the
// dispatcher had stopped.
func WithDropCounter(c prometheus.Counter) Option {
	return func(d *Dispatcher) { d.dropped = c }
}

// WithQueueDepth reports each worker's backlog, labelled by worker_id.
func WithQueueDepth(g *prometheus.GaugeVec) Option {
	return func(d *Dispatcher) { d.depth = g }
}

// Dispatcher writes auth audit events off the request path. Events are
// sharded by subject so one account's trail stays in order. Record never
// blocks: when a worker is saturated the event is dropped and counted.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	buffer  int
	dropped prometheus.Counter
	depth   *prometheus.GaugeVec

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		repo:    repo,
		log:     log,
		buffer:  defaultBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, d.buffer)
	}
	return d
}

// Start launches the workers. They exit when ctx is cancelled or, after Stop,
// once their queues are drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues event for persistence.
func (d *Dispatcher) Record(event domain.AuthEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher stopped")
		return
	}

	idx := d.shardIndex(subject(event))
	select {
	case d.workers[idx] <- event:
		d.observeDepth(idx)
	default:
		d.drop(event, "audit queue full")
	}
}

// Stop refuses new events, lets workers flush what is queued and waits for
// them to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func subject(event domain.AuthEvent) string {
	if event.UserID != "" {
		return event.UserID
	}
	return event.Email
}

// shardIndex maps a subject deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(event domain.AuthEvent, reason string) {
	if d.dropped != nil {
		d.dropped.Inc()
	}
	d.log.Warn().
		Str("event", string(event.Type)).
		Str("user_id", event.UserID).
		Msg(reason)
}

func (d *Dispatcher) observeDepth(idx int) {
	if d.depth != nil {
		d.depth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.observeDepth(id)
			d.write(ctx, id, event)
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.AuthEvent) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := d.repo.InsertEvent(writeCtx, &event); err != nil {
		d.log.Error().Err(err).
			Str("event", string(event.Type)).
			Str("user_id", event.UserID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
