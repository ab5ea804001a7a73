// Package dispatcher fans telemetry records out to attached sinks
// (telemetry store, InfluxDB) with per-sink buffering and OTel metrics.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/canaswarm/microbot/internal/model/core"
)

// SinkFunc consumes one telemetry record.
type SinkFunc func(core.TelemetryRecord) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures sink attachment.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the sink async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered sink block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the sink.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes telemetry records to attached sinks.
type Dispatcher struct {
	sinks  map[string]SinkFunc
	order  []string
	logger Logger

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	published metric.Int64Counter
	dropped   metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan core.TelemetryRecord
	workers sync.WaitGroup
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		sinks:   make(map[string]SinkFunc),
		buffers: make(map[string]chan core.TelemetryRecord),
		logger:  logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"telemetry.queue.size",
		metric.WithDescription("Current number of records queued per sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for sink, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("sink", sink)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.published, err = m.Int64Counter(
		"telemetry.records.published",
		metric.WithDescription("Total records delivered to sinks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"telemetry.records.dropped",
		metric.WithDescription("Total records dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Attach adds a sink under the given name with optional configuration.
func (d *Dispatcher) Attach(name string, s SinkFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	sink := s

	if cfg.bufferSize > 0 {
		sink = d.withBuffer(name, cfg.bufferSize, cfg.blocking, sink)
	}

	if cfg.logged {
		sink = d.withLogging(name, sink)
	}

	if _, exists := d.sinks[name]; !exists {
		d.order = append(d.order, name)
	}
	d.sinks[name] = sink
}

// Publish delivers a record to every attached sink. A failing sink
// does not stop delivery to the others.
func (d *Dispatcher) Publish(rec core.TelemetryRecord) error {
	var errs []error
	for _, name := range d.order {
		if err := d.sinks[name](rec); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// HasSink returns true if a sink is attached under the name.
func (d *Dispatcher) HasSink(name string) bool {
	_, ok := d.sinks[name]
	return ok
}

// Close drains buffered sinks and waits for their workers to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for _, buf := range d.buffers {
		close(buf)
	}
	d.buffers = make(map[string]chan core.TelemetryRecord)
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) withBuffer(name string, size int, blocking bool, s SinkFunc) SinkFunc {
	buffer := make(chan core.TelemetryRecord, size)

	d.mu.Lock()
	d.buffers[name] = buffer
	d.mu.Unlock()

	sinkAttr := attribute.String("sink", name)

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for rec := range buffer {
			if err := s(rec); err != nil && d.logger != nil {
				d.logger.Error("sink write failed", "sink", name, "seq", rec.Seq, "error", err)
			}
			d.published.Add(context.Background(), 1, metric.WithAttributes(sinkAttr))
		}
	}()

	if blocking {
		return func(rec core.TelemetryRecord) error {
			buffer <- rec
			return nil
		}
	}

	return func(rec core.TelemetryRecord) error {
		select {
		case buffer <- rec:
			return nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(sinkAttr))
			return fmt.Errorf("queue full: %s", name)
		}
	}
}

func (d *Dispatcher) withLogging(name string, s SinkFunc) SinkFunc {
	return func(rec core.TelemetryRecord) error {
		start := time.Now()
		d.logger.Debug("publishing record", "sink", name, "seq", rec.Seq)

		err := s(rec)

		if err != nil {
			d.logger.Error("publish failed", "sink", name, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("publish complete", "sink", name, "duration", time.Since(start))
		}

		return err
	}
}
