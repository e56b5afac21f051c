package decision

import (
	"sync"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

// Log stores decision records in production order.
type Log interface {
	Append(rec messages.DecisionRecord)
	// Recent returns up to n records, oldest first.
	Recent(n int) []messages.DecisionRecord
	Len() int
}

// MemoryLog is an unbounded in-process Log safe for concurrent use.
type MemoryLog struct {
	mu      sync.RWMutex
	records []messages.DecisionRecord
}

var _ Log = (*MemoryLog)(nil)

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (l *MemoryLog) Append(rec messages.DecisionRecord) {
	l.mu.Lock()
	l.records = append(l.records, rec.Clone())
	l.mu.Unlock()
}

// Recent returns the last n records. n <= 0 yields none, n above Len yields all.
func (l *MemoryLog) Recent(n int) []messages.DecisionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return []messages.DecisionRecord{}
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	tail := l.records[len(l.records)-n:]
	out := make([]messages.DecisionRecord, len(tail))
	for i, r := range tail {
		out[i] = r.Clone()
	}
	return out
}

func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
