package history

import (
	"context"
	"sync"
)

// MemoryReader keeps processed records in memory. Useful for tests and local
// dev without object storage.
type MemoryReader struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryReader constructs an empty reader.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{records: make(map[string][]Record)}
}

// Add appends records for their vessels.
func (r *MemoryReader) Add(records ...Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.MMSI] = append(r.records[rec.MMSI], rec)
	}
}

func (r *MemoryReader) Latest(ctx context.Context, mmsi string) (Record, bool, error) {
	records, err := r.History(ctx, mmsi)
	if err != nil || len(records) == 0 {
		return Record{}, false, err
	}
	return records[len(records)-1], true, nil
}

func (r *MemoryReader) History(ctx context.Context, mmsi string) ([]Record, error) {
	r.mu.RLock()
	stored := r.records[mmsi]
	r.mu.RUnlock()

	records := make([]Record, len(stored))
	copy(records, stored)
	sortByTimestamp(records)
	return records, nil
}

func (r *MemoryReader) ESG(ctx context.Context, mmsi string) (ESGView, bool, error) {
	rec, ok, err := r.Latest(ctx, mmsi)
	if err != nil || !ok {
		return ESGView{}, false, err
	}
	return esgView(rec), true, nil
}

var _ Reader = (*MemoryReader)(nil)
