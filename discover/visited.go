package discover

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// Tracker dedupes URLs across merged sitemap trees. Large department
// sitemaps can flatten into six-figure URL counts, so the set is a bloom
// filter snapshotted into a memory-mapped scratch file: constant memory, a
// 0.1% false-positive rate, and no false negatives. A false positive skips
// a genuinely-new URL for one run; discovery reruns from scratch, so the
// URL resurfaces next time.
type Tracker struct {
	mu         sync.Mutex
	filter     *bloom.BloomFilter
	file       *os.File
	mapped     mmap.MMap
	path       string
	pending    uint64
	flushEvery uint64
}

// defaultTrackerCapacity sizes the filter for the URL volume one discovery
// run can plausibly see.
const defaultTrackerCapacity = 200_000

// NewTracker creates a Tracker backed by a scratch file in the OS temp
// directory. capacity <= 0 selects the default.
func NewTracker(capacity uint) (*Tracker, error) {
	if capacity == 0 {
		capacity = defaultTrackerCapacity
	}
	filter := bloom.NewWithEstimates(capacity, 0.001)

	file, err := os.CreateTemp(os.TempDir(), "servicewatch-seen-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create tracker scratch file: %w", err)
	}
	path := file.Name()

	size := int(filter.Cap())
	if err := file.Truncate(int64(size)); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("size tracker scratch file: %w", err)
	}

	mapped, err := mmap.MapRegion(file, size, mmap.RDWR, 0, 0)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("mmap tracker scratch file: %w", err)
	}

	return &Tracker{
		filter:     filter,
		file:       file,
		mapped:     mapped,
		path:       path,
		flushEvery: 1000,
	}, nil
}

// SeenBefore marks url as seen and reports whether it had been seen already.
func (t *Tracker) SeenBefore(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filter.TestString(url) {
		return true
	}
	t.filter.AddString(url)

	t.pending++
	if t.pending >= t.flushEvery {
		// Best-effort snapshot; a failed flush only loses the scratch copy.
		_ = t.flushLocked()
	}
	return false
}

// flushLocked snapshots the filter into the mapped region. Must be called
// with mu held.
func (t *Tracker) flushLocked() error {
	data, err := t.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal tracker filter: %w", err)
	}
	if len(data) <= len(t.mapped) {
		copy(t.mapped, data)
	}
	if err := t.mapped.Flush(); err != nil {
		return fmt.Errorf("flush tracker mmap: %w", err)
	}
	t.pending = 0
	return nil
}

// Close flushes pending state and removes the scratch file.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error

	if t.mapped != nil {
		if t.pending > 0 {
			if err := t.flushLocked(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := t.mapped.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		t.mapped = nil
	}

	if t.file != nil {
		if err := t.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close scratch file: %w", err))
		}
		t.file = nil
	}

	if t.path != "" {
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove scratch file: %w", err))
		}
		t.path = ""
	}

	if len(errs) > 0 {
		return fmt.Errorf("close tracker: %w", errors.Join(errs...))
	}
	return nil
}
