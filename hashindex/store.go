package hashindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/artyom/picsort/digest"
)

// Marshal serializes the index as a YAML mapping of hex digests to paths,
// with keys in sorted order.
func (ix *Index) Marshal() ([]byte, error) {
	ix.mu.Lock()
	m := make(map[string]string, len(ix.entries))
	for h, p := range ix.entries {
		m[h.String()] = p
	}
	ix.mu.Unlock()
	return yaml.Marshal(m)
}

// Load builds an index from data produced by Marshal. JSON objects of the
// same shape are accepted too. All loaded entries start Fresh.
func Load(data []byte, fs Filesystem, opts ...Option) (*Index, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	ix := New(fs, opts...)
	for k, p := range m {
		h, err := digest.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
		}
		ix.entries[h] = p
		ix.states[h] = Fresh
	}
	return ix, nil
}

// LoadFile reads an index saved with SaveFile. A missing file yields an
// empty index.
func LoadFile(path string, fs Filesystem, opts ...Option) (*Index, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(fs, opts...), nil
	}
	if err != nil {
		return nil, err
	}
	ix, err := Load(data, fs, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

// SaveFile writes the index to path atomically: data goes to a temporary
// file in the same directory which is then renamed over path. An existing
// file keeps its permissions; a new one gets 0644.
func (ix *Index) SaveFile(path string) error {
	data, err := ix.Marshal()
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Audit checks every entry against the file system, marking each Verified or
// Stale, and returns the stale hashes in sorted order. Entries are not
// changed; staleness is repaired by the next LookupOrRegister of the hash.
func (ix *Index) Audit() ([]digest.Hash, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var stale []digest.Hash
	for h, p := range ix.entries {
		if !ix.fs.Exists(p) {
			ix.states[h] = Stale
			stale = append(stale, h)
			continue
		}
		current, err := ix.fs.Hash(p)
		if err != nil {
			return nil, fmt.Errorf("rehash %s: %w", p, err)
		}
		if current != h {
			ix.states[h] = Stale
			stale = append(stale, h)
			continue
		}
		ix.states[h] = Verified
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].String() < stale[j].String() })
	return stale, nil
}

// Entries returns a copy of the hash to path mapping.
func (ix *Index) Entries() map[digest.Hash]string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make(map[digest.Hash]string, len(ix.entries))
	for h, p := range ix.entries {
		out[h] = p
	}
	return out
}

// Remove deletes the entry for h, reporting whether there was one.
func (ix *Index) Remove(h digest.Hash) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.entries[h]; !ok {
		return false
	}
	delete(ix.entries, h)
	delete(ix.states, h)
	return true
}
