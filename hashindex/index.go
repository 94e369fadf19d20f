// Package hashindex keeps a persistent map from file content hash to the
// path believed to hold that content, and repairs it in place when files are
// moved, renamed, deleted or replaced behind its back.
package hashindex

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/artyom/picsort/digest"
)

var (
	// ErrIndexCorruption is returned when repairing an entry does not settle
	// within the depth bound or revisits a hash.
	ErrIndexCorruption = errors.New("hash index corruption")

	// ErrDeserialize is returned by Load for malformed index data.
	ErrDeserialize = errors.New("cannot deserialize hash index")
)

// DefaultMaxDepth bounds the number of repair steps of a single
// LookupOrRegister call.
const DefaultMaxDepth = 32

// Verdict is the outcome of LookupOrRegister.
type Verdict int

const (
	// NewEntry means the hash was not indexed and now maps to the path.
	NewEntry Verdict = iota
	// Duplicate means an unchanged file with the same content is already
	// indexed; the path was added to the duplicate set.
	Duplicate
	// Repaired means a stale entry was pointed at the path.
	Repaired
	// Known means the hash already maps to this very path.
	Known
)

func (v Verdict) String() string {
	switch v {
	case NewEntry:
		return "new"
	case Duplicate:
		return "duplicate"
	case Repaired:
		return "repaired"
	case Known:
		return "known"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// State tracks what is known about an entry's path.
type State int

const (
	Fresh    State = iota // inserted, path assumed valid
	Verified              // path exists and its content hashes to the key
	Stale                 // path missing or content changed; repaired on next lookup
	Resolved              // stale entry pointed at a valid path
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Verified:
		return "verified"
	case Stale:
		return "stale"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Filesystem is what the index needs to know about files it points at.
type Filesystem interface {
	Exists(path string) bool
	Hash(path string) (digest.Hash, error)
}

// OSFiles is a Filesystem backed by the local file system.
type OSFiles struct {
	Hasher digest.Hasher
}

func (f OSFiles) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (f OSFiles) Hash(path string) (digest.Hash, error) { return f.Hasher.File(path) }

// Index maps content hashes to paths. It is safe for concurrent use; every
// LookupOrRegister call runs under a single lock.
type Index struct {
	fs       Filesystem
	maxDepth int
	dups     *DuplicateSet
	log      *log.Logger

	mu      sync.Mutex
	entries map[digest.Hash]string
	states  map[digest.Hash]State
}

// Option configures an Index.
type Option func(*Index)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option { return func(ix *Index) { ix.maxDepth = n } }

// WithDuplicates makes the index collect duplicates into set.
func WithDuplicates(set *DuplicateSet) Option { return func(ix *Index) { ix.dups = set } }

// WithLogger makes the index report repairs to l.
func WithLogger(l *log.Logger) Option { return func(ix *Index) { ix.log = l } }

// New returns an empty index.
func New(fs Filesystem, opts ...Option) *Index {
	ix := &Index{
		fs:       fs,
		maxDepth: DefaultMaxDepth,
		entries:  make(map[digest.Hash]string),
		states:   make(map[digest.Hash]State),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.dups == nil {
		ix.dups = &DuplicateSet{}
	}
	return ix
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// Lookup returns the path recorded for h.
func (ix *Index) Lookup(h digest.Hash) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.entries[h]
	return p, ok
}

// State returns the state of the entry for h.
func (ix *Index) State(h digest.Hash) (State, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	s, ok := ix.states[h]
	return s, ok
}

// Duplicates returns the set duplicates are collected into.
func (ix *Index) Duplicates() *DuplicateSet { return ix.dups }

// LookupOrRegister records that path holds content with hash h.
//
// If h is unknown it is inserted. If h is recorded for a path that no longer
// exists the entry is pointed at path. If the recorded path still holds
// content hashing to h, path is a duplicate. If the recorded path now holds
// different content, h is pointed at path and resolution continues with the
// recorded path under its new hash, until a step lands on an unknown hash or
// proves a duplicate.
func (ix *Index) LookupOrRegister(h digest.Hash, path string) (Verdict, error) {
	return ix.Register(h, path, path)
}

// Register is LookupOrRegister for a file that currently lives at source but
// is about to be placed at path: path is what gets recorded, and source is
// what gets collected if the file turns out to be a duplicate.
func (ix *Index) Register(h digest.Hash, path, source string) (Verdict, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	type step struct {
		key      digest.Hash
		recorded string
	}
	key, candidate, origin := h, filepath.Clean(path), filepath.Clean(source)
	seen := make(map[step]struct{})
	for depth := 0; ; depth++ {
		if depth > ix.maxDepth {
			return 0, fmt.Errorf("%w: repairing %s took more than %d steps", ErrIndexCorruption, h, ix.maxDepth)
		}
		recorded, ok := ix.entries[key]
		if !ok {
			ix.entries[key] = candidate
			ix.states[key] = Fresh
			return settle(depth, NewEntry), nil
		}
		// an entry rewritten earlier in this call may be visited again;
		// only the same entry at the same path is a loop
		st := step{key, filepath.Clean(recorded)}
		if _, ok := seen[st]; ok {
			return 0, fmt.Errorf("%w: repairing %s revisited %s at %q", ErrIndexCorruption, h, key, recorded)
		}
		seen[st] = struct{}{}

		switch {
		case st.recorded == candidate:
			ix.states[key] = Verified
			return settle(depth, Known), nil
		case st.recorded == origin:
			// the indexed file itself is moving to candidate
			ix.entries[key] = candidate
			ix.states[key] = Resolved
			ix.logf("hash index: %s moved from %q to %q", key, recorded, candidate)
			return Repaired, nil
		case !ix.fs.Exists(recorded):
			ix.entries[key] = candidate
			ix.states[key] = Resolved
			ix.logf("hash index: %s moved from %q to %q", key, recorded, candidate)
			return Repaired, nil
		}

		current, err := ix.fs.Hash(recorded)
		if err != nil {
			return 0, fmt.Errorf("rehash %s: %w", recorded, err)
		}
		if current == key {
			ix.states[key] = Verified
			ix.dups.Add(origin)
			return settle(depth, Duplicate), nil
		}
		ix.logf("hash index: %q changed content (%s -> %s), pointing %s at %q", recorded, key, current, key, candidate)
		ix.entries[key] = candidate
		ix.states[key] = Resolved
		key, candidate = current, st.recorded
		origin = candidate
	}
}

// Repoint changes the entry for h from path from to path to, reporting
// whether the entry was recorded at from. It undoes a registration whose
// file never reached the registered path.
func (ix *Index) Repoint(h digest.Hash, from, to string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.entries[h]
	if !ok || filepath.Clean(p) != filepath.Clean(from) {
		return false
	}
	ix.entries[h] = filepath.Clean(to)
	ix.states[h] = Resolved
	return true
}

// settle maps the verdict of the last resolution step to the verdict of the
// whole call: any step past the first means the original entry was repaired.
func settle(depth int, v Verdict) Verdict {
	if depth > 0 {
		return Repaired
	}
	return v
}

func (ix *Index) logf(format string, args ...interface{}) {
	if ix.log != nil {
		ix.log.Printf(format, args...)
	}
}
