package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"goldsys/internal/model"
)

// pendingWrite is a write held back while the circuit is open.
type pendingWrite struct {
	WriteType string // "bar" or "tick"
	Data      []byte // JSON-encoded payload
}

// BufferedWriter wraps a Redis Writer with a circuit breaker. While the
// circuit is open, writes are buffered locally and flushed when it closes
// again, so a Redis outage degrades to delayed fan-out instead of data loss.
type BufferedWriter struct {
	writer *Writer
	cb     *CircuitBreaker
	ctx    context.Context

	mu     sync.Mutex
	buffer []pendingWrite
	maxBuf int // max buffered writes before dropping oldest

	// Callbacks
	OnBuffer func()          // called when a write is buffered (for metrics)
	OnFlush  func(count int) // called after flushing buffered writes
}

// NewBufferedWriter creates a BufferedWriter wrapping the given Writer.
func NewBufferedWriter(ctx context.Context, w *Writer, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		writer: w,
		cb:     cb,
		ctx:    ctx,
		buffer: make([]pendingWrite, 0, 256),
		maxBuf: maxBufferSize,
	}

	// Flush the backlog whenever the circuit closes
	prevCallback := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bw.flush()
		}
	}

	return bw
}

// WriteBar writes a closed bar through the circuit breaker.
// If the circuit is open, the write is buffered locally.
func (bw *BufferedWriter) WriteBar(bar model.Bar) error {
	err := bw.cb.Execute(func() error {
		bw.writer.writeBar(bw.ctx, bar)
		return nil // writeBar logs errors internally
	})
	if err == ErrCircuitOpen {
		bw.bufferWrite("bar", bar)
		return nil // buffered, not lost
	}
	return err
}

// WriteTick publishes a tick through the circuit breaker.
func (bw *BufferedWriter) WriteTick(tick model.Tick) error {
	err := bw.cb.Execute(func() error {
		bw.writer.PublishTick(bw.ctx, tick)
		return nil
	})
	if err == ErrCircuitOpen {
		bw.bufferWrite("tick", tick)
		return nil
	}
	return err
}

func (bw *BufferedWriter) bufferWrite(writeType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[buffered-writer] marshal error: %v", err)
		return
	}

	bw.mu.Lock()
	defer bw.mu.Unlock()

	if len(bw.buffer) >= bw.maxBuf {
		// Buffer full — drop oldest
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, pendingWrite{WriteType: writeType, Data: data})

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush replays all buffered writes through the underlying writer.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	// Take ownership of the buffer
	toFlush := bw.buffer
	bw.buffer = make([]pendingWrite, 0, 256)
	bw.mu.Unlock()

	flushed := 0
	for _, pw := range toFlush {
		switch pw.WriteType {
		case "bar":
			var b model.Bar
			if json.Unmarshal(pw.Data, &b) == nil {
				bw.writer.writeBar(bw.ctx, b)
			}
		case "tick":
			var t model.Tick
			if json.Unmarshal(pw.Data, &t) == nil {
				bw.writer.PublishTick(bw.ctx, t)
			}
		}
		flushed++
	}

	log.Printf("[buffered-writer] flushed %d buffered writes", flushed)
	if bw.OnFlush != nil {
		bw.OnFlush(flushed)
	}
}

// PendingCount returns the number of buffered writes waiting to be flushed.
func (bw *BufferedWriter) PendingCount() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Underlying returns the wrapped Redis writer for direct access.
func (bw *BufferedWriter) Underlying() *Writer {
	return bw.writer
}
