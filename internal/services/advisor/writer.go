package advisor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

// pointWriter is the subset of influxdb2 api.WriteAPI the writer needs.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
	Errors() <-chan error
}

// InfluxWriter mirrors decisions into InfluxDB through the async write API
// and remembers when the last write failed, for /healthz and /readyz.
type InfluxWriter struct {
	api pointWriter
	now func() time.Time

	mu      sync.RWMutex
	lastErr time.Time
	written int64
}

var _ Sink = (*InfluxWriter)(nil)

// NewInfluxWriter starts the listener for asynchronous write errors.
func NewInfluxWriter(w pointWriter) *InfluxWriter {
	iw := &InfluxWriter{api: w, now: time.Now}
	go func() {
		for err := range w.Errors() {
			if err == nil {
				continue
			}
			iw.mu.Lock()
			iw.lastErr = iw.now()
			iw.mu.Unlock()
			log.Printf("influx: write error: %v", err)
		}
	}()
	return iw
}

func (w *InfluxWriter) Name() string { return "influx" }

func (w *InfluxWriter) Record(_ context.Context, meta Meta, rec messages.DecisionRecord) error {
	w.api.WritePoint(DecisionToPoint(meta, rec))
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	return nil
}

// LastErrorAge is how long ago the last write error happened; very large
// when there has been none.
func (w *InfluxWriter) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	if t.IsZero() {
		return 99999 * time.Hour
	}
	return w.now().Sub(t)
}

func (w *InfluxWriter) Written() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.written
}

// Flush forces pending points out; called on shutdown.
func (w *InfluxWriter) Flush() {
	if w != nil {
		w.api.Flush()
	}
}
