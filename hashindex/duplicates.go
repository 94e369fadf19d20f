package hashindex

import "sync"

// DuplicateSet is an ordered, append-only collection of paths proven to
// duplicate an indexed file. It is drained by whoever deletes them.
type DuplicateSet struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]struct{}
}

// Add appends path unless it is already in the set.
func (d *DuplicateSet) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[path]; ok {
		return
	}
	d.seen[path] = struct{}{}
	d.paths = append(d.paths, path)
}

// Contains reports whether path is in the set.
func (d *DuplicateSet) Contains(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[path]
	return ok
}

func (d *DuplicateSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.paths)
}

// Paths returns a copy of the collected paths in insertion order.
func (d *DuplicateSet) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.paths...)
}

// Drain returns the collected paths and empties the set.
func (d *DuplicateSet) Drain() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.paths
	d.paths, d.seen = nil, nil
	return out
}
