// Package similar finds near-duplicate images in a directory by comparing
// the edges of every pair of images.
package similar

import (
	"context"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/artyom/picsort/edgecmp"
)

// DefaultExtensions are the file extensions scanned when Finder.Extensions
// is empty.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Match is a pair of images whose comparison met the match threshold.
type Match struct {
	Source     string
	Comparison string
	Result     edgecmp.Result
}

// Finder compares every pair of images under a directory.
type Finder struct {
	Comparator *edgecmp.Comparator
	Extensions []string
	Recursive  bool
	Workers    int

	// Logger, if set, receives one line per file that could not be decoded.
	Logger *log.Logger
}

// Find returns matching pairs sorted by source then comparison path. Files
// that fail to decode are skipped. Each pair is compared once, with the
// lexically smaller path as the source.
func (f *Finder) Find(ctx context.Context, dir string) ([]Match, error) {
	imgs, err := f.prepare(ctx, dir)
	if err != nil {
		return nil, err
	}
	type pair struct{ i, j int }
	group, ctx := errgroup.WithContext(ctx)
	ch := make(chan pair)
	group.Go(func() error {
		defer close(ch)
		for i := range imgs {
			for j := i + 1; j < len(imgs); j++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ch <- pair{i, j}:
				}
			}
		}
		return nil
	})
	cache := newScaledCache(f.Comparator, 4*len(imgs))
	var mu sync.Mutex
	var out []Match
	for i := 0; i < f.workers(); i++ {
		group.Go(func() error {
			for p := range ch {
				a, b := imgs[p.i], imgs[p.j]
				size := f.Comparator.WorkingSize(a.img)
				src, err := cache.get(p.i, a.img, size)
				if err != nil {
					return err
				}
				cmp, err := cache.get(p.j, b.img, size)
				if err != nil {
					return err
				}
				res, err := f.Comparator.CompareAligned(src, cmp)
				if err != nil {
					return err
				}
				if !res.Match {
					continue
				}
				mu.Lock()
				out = append(out, Match{Source: a.name, Comparison: b.name, Result: res})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Comparison < out[j].Comparison
	})
	return out, nil
}

type prepared struct {
	name string
	img  *image.Gray
}

// prepare decodes and edge-filters every image under dir concurrently.
func (f *Finder) prepare(ctx context.Context, dir string) ([]prepared, error) {
	exts := f.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	group, ctx := errgroup.WithContext(ctx)
	ch := make(chan string)
	root := filepath.Clean(dir)
	walkFunc := func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && p != root && !f.Recursive {
			return filepath.SkipDir
		}
		if !info.Mode().IsRegular() || !hasExt(p, exts) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- p:
		}
		return nil
	}
	group.Go(func() error {
		defer close(ch)
		return filepath.Walk(root, walkFunc)
	})
	var mu sync.Mutex
	var out []prepared
	for i := 0; i < f.workers(); i++ {
		group.Go(func() error {
			for p := range ch {
				img, err := edgecmp.Prepare(p)
				if err != nil {
					if f.Logger != nil {
						f.Logger.Printf("skipping %q: %v", p, err)
					}
					continue
				}
				mu.Lock()
				out = append(out, prepared{name: p, img: img})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// scaledCache keeps images resampled to working sizes so that each image is
// resampled once per size rather than once per pair. Past limit entries it
// stops storing and resamples on every call.
type scaledCache struct {
	cmp   *edgecmp.Comparator
	limit int

	mu   sync.Mutex
	bufs map[scaledKey]*image.Gray
}

type scaledKey struct {
	idx  int
	size image.Point
}

func newScaledCache(cmp *edgecmp.Comparator, limit int) *scaledCache {
	return &scaledCache{cmp: cmp, limit: limit, bufs: make(map[scaledKey]*image.Gray)}
}

func (c *scaledCache) get(idx int, img *image.Gray, size image.Point) (*image.Gray, error) {
	k := scaledKey{idx, size}
	c.mu.Lock()
	buf, ok := c.bufs[k]
	c.mu.Unlock()
	if ok {
		return buf, nil
	}
	buf, err := c.cmp.Scale(img, size)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if len(c.bufs) < c.limit {
		c.bufs[k] = buf
	}
	c.mu.Unlock()
	return buf, nil
}

func (f *Finder) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func hasExt(p string, exts []string) bool {
	ext := filepath.Ext(p)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
