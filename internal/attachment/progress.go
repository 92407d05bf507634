package attachment

import (
	"io"
	"math"
	"sync"
)

// ProgressSink receives upload progress changes, e.g. to mirror them for polling.
type ProgressSink interface {
	Publish(key string, percent float64)
	Clear(key string)
}

// Clamp bounds percent to [0,100]. NaN maps to 0.
func Clamp(percent float64) float64 {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

// ProgressTracker stores the last applied progress per upload.
type ProgressTracker struct {
	mu     sync.Mutex
	values map[string]float64
	sink   ProgressSink
}

// NewProgressTracker builds a tracker. sink may be nil.
func NewProgressTracker(sink ProgressSink) *ProgressTracker {
	return &ProgressTracker{values: make(map[string]float64), sink: sink}
}

// Start registers key at 0%.
func (p *ProgressTracker) Start(key string) {
	p.mu.Lock()
	p.values[key] = 0
	p.mu.Unlock()
	if p.sink != nil {
		p.sink.Publish(key, 0)
	}
}

// Update applies percent (clamped) to key. It reports whether the stored
// value changed; unchanged values are not forwarded to the sink.
func (p *ProgressTracker) Update(key string, percent float64) (float64, bool) {
	value := Clamp(percent)

	p.mu.Lock()
	current, ok := p.values[key]
	if ok && current == value {
		p.mu.Unlock()
		return value, false
	}
	p.values[key] = value
	p.mu.Unlock()

	if p.sink != nil {
		p.sink.Publish(key, value)
	}
	return value, true
}

// Value returns the stored progress for key.
func (p *ProgressTracker) Value(key string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

// Release forgets key once its upload settled.
func (p *ProgressTracker) Release(key string) {
	p.mu.Lock()
	delete(p.values, key)
	p.mu.Unlock()
	if p.sink != nil {
		p.sink.Clear(key)
	}
}

// progressReader reports the share of total bytes read so far.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	onUpdate func(float64)
}

// NewProgressReader wraps r so that onUpdate receives 0..100 as bytes are consumed.
func NewProgressReader(r io.Reader, total int64, onUpdate func(float64)) io.Reader {
	return &progressReader{reader: r, total: total, onUpdate: onUpdate}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 && p.total > 0 && p.onUpdate != nil {
		p.read += int64(n)
		p.onUpdate(float64(p.read) * 100 / float64(p.total))
	}
	return n, err
}
