package dispatcher

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canaswarm/microbot/internal/model/core"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func record(seq uint) core.TelemetryRecord {
	return core.TelemetryRecord{Seq: seq, Status: core.StatusNavigating}
}

func TestDispatcher_SyncSink(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got core.TelemetryRecord
	d.Attach("store", func(rec core.TelemetryRecord) error {
		got = rec
		return nil
	})

	err := d.Publish(record(7))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got.Seq != 7 {
		t.Errorf("sink did not receive record, got seq %d", got.Seq)
	}
}

func TestDispatcher_FansOutToAllSinks(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var a, b atomic.Int32
	d.Attach("a", func(core.TelemetryRecord) error { a.Add(1); return nil })
	d.Attach("b", func(core.TelemetryRecord) error { b.Add(1); return nil })

	for i := 0; i < 3; i++ {
		if err := d.Publish(record(uint(i))); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if a.Load() != 3 || b.Load() != 3 {
		t.Errorf("expected 3 deliveries each, got a=%d b=%d", a.Load(), b.Load())
	}
}

func TestDispatcher_FailingSinkDoesNotStopDelivery(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var delivered atomic.Int32
	d.Attach("bad", func(core.TelemetryRecord) error { return fmt.Errorf("broken") })
	d.Attach("good", func(core.TelemetryRecord) error { delivered.Add(1); return nil })

	err := d.Publish(record(0))

	if err == nil {
		t.Error("expected error from failing sink")
	}
	if delivered.Load() != 1 {
		t.Error("good sink should still receive the record")
	}
}

func TestDispatcher_BufferedSink(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Attach("influx", func(core.TelemetryRecord) error {
		processed.Add(1)
		wg.Done()
		return nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		if err := d.Publish(record(uint(i))); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	wg.Wait()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	// Block the sink so queue fills up
	block := make(chan struct{})
	d.Attach("slow", func(core.TelemetryRecord) error {
		<-block
		return nil
	}, Buffered(2))

	d.Publish(record(0)) // being processed
	d.Publish(record(1)) // queued
	d.Publish(record(2)) // queued

	// This should be dropped
	err := d.Publish(record(3))

	if err == nil {
		t.Error("expected error when queue is full")
	}

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	d.Attach("slow", func(core.TelemetryRecord) error {
		<-block
		return nil
	}, Buffered(1), Blocking())

	// First record starts processing
	d.Publish(record(0))
	// Second record fills the queue
	d.Publish(record(1))

	// Third record should block (test with timeout)
	done := make(chan struct{})
	go func() {
		d.Publish(record(2))
		close(done)
	}()

	select {
	case <-done:
		t.Error("publish should have blocked")
	case <-time.After(50 * time.Millisecond):
		// Expected - publish is blocking
	}

	close(block)
}

func TestDispatcher_LoggedSink(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Attach("store", func(core.TelemetryRecord) error {
		return nil
	}, Logged())

	d.Publish(record(0))

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_LoggedSinkError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Attach("store", func(core.TelemetryRecord) error {
		return fmt.Errorf("test error")
	}, Logged())

	d.Publish(record(0))

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if len(msg) >= 5 && msg[:5] == "ERROR" {
			hasError = true
			break
		}
	}

	if !hasError {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasSink(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Attach("store", func(core.TelemetryRecord) error { return nil })

	if !d.HasSink("store") {
		t.Error("expected sink to exist")
	}

	if d.HasSink("missing") {
		t.Error("expected sink to not exist")
	}
}

func TestDispatcher_CloseWaitsForWorkers(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	d.Attach("influx", func(core.TelemetryRecord) error {
		time.Sleep(5 * time.Millisecond)
		processed.Add(1)
		return nil
	}, Buffered(10))

	for i := 0; i < 4; i++ {
		d.Publish(record(uint(i)))
	}

	d.Close()

	if processed.Load() != 4 {
		t.Errorf("expected all 4 records processed before Close returned, got %d", processed.Load())
	}
}
