// Package sorter moves images into folders named after their resolution
// class, optionally checking each file against a content hash index to catch
// exact duplicates.
package sorter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/artyom/picsort/digest"
	"github.com/artyom/picsort/hashindex"
	"github.com/artyom/picsort/pixels"
)

// Options configures a Sorter.
type Options struct {
	Source      string
	Destination string
	Recursive   bool
	FileTypes   []string
	IgnoreDirs  []string
	Classifier  Classifier

	// Index, if set, is consulted for every file; files proven to be
	// duplicates of an indexed file are not moved.
	Index  *hashindex.Index
	Hasher digest.Hasher

	// Duplicates collects source paths of duplicate files. If nil, the
	// index's set is used, or a new one.
	Duplicates *hashindex.DuplicateSet

	// DryRun reports what would happen without moving files or touching
	// the index.
	DryRun bool

	Workers int
	Logger  *log.Logger
}

// Report summarizes a Run.
type Report struct {
	Found      int
	Moved      int
	Renamed    int
	Duplicates int
	Failed     int
}

// Sorter sorts a directory of images.
type Sorter struct {
	opts Options
	exts map[string]bool
	skip map[string]bool
	dups *hashindex.DuplicateSet
}

// New returns a Sorter for opts.
func New(opts Options) *Sorter {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Classifier.Fallback == "" {
		opts.Classifier = DefaultClassifier()
	}
	if opts.Hasher.Algorithm() == "" {
		opts.Hasher = digest.Default()
	}
	s := &Sorter{
		opts: opts,
		exts: make(map[string]bool),
		skip: make(map[string]bool),
		dups: opts.Duplicates,
	}
	for _, e := range opts.FileTypes {
		s.exts[strings.ToLower(e)] = true
	}
	for _, d := range opts.IgnoreDirs {
		s.skip[d] = true
	}
	if s.dups == nil && opts.Index != nil {
		s.dups = opts.Index.Duplicates()
	}
	if s.dups == nil {
		s.dups = &hashindex.DuplicateSet{}
	}
	return s
}

// Duplicates returns the set duplicates are collected into.
func (s *Sorter) Duplicates() *hashindex.DuplicateSet { return s.dups }

// MakeDirs creates every destination folder the classifier may pick.
func (s *Sorter) MakeDirs() error {
	for _, name := range s.opts.Classifier.Names() {
		p := filepath.Join(s.opts.Destination, name)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
		s.logf("%s folder created!", name)
	}
	return nil
}

type item struct {
	seq  int
	path string
	w, h int
	hash digest.Hash
	err  error
}

// Run sorts every matching file under the source directory. Files that
// cannot be read or decoded are logged and counted as failed without
// stopping the run; errors from the index or from ctx stop it.
func (s *Sorter) Run(ctx context.Context) (Report, error) {
	return s.pipeline(ctx, s.inspect, s.place)
}

// Dedupe registers every matching file under the source directory with the
// index without moving anything. Files whose content is already indexed
// under another existing path are collected as duplicates.
func (s *Sorter) Dedupe(ctx context.Context) (Report, error) {
	if s.opts.Index == nil {
		return Report{}, errors.New("dedupe needs a hash index")
	}
	return s.pipeline(ctx, s.hashOnly, s.register)
}

// pipeline walks the source on one goroutine, runs inspect on a pool of
// workers and feeds the results to handle on a single goroutine, in walk
// order.
func (s *Sorter) pipeline(ctx context.Context, inspect func(string) item, handle func(item, *Report) error) (Report, error) {
	type job struct {
		seq  int
		path string
	}
	group, ctx := errgroup.WithContext(ctx)
	paths := make(chan string)
	jobs := make(chan job)
	items := make(chan item)

	group.Go(func() error {
		defer close(paths)
		return s.walk(ctx, paths)
	})
	group.Go(func() error {
		defer close(jobs)
		seq := 0
		for p := range paths {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- job{seq, p}:
			}
			seq++
		}
		return nil
	})
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		group.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				it := inspect(j.path)
				it.seq = j.seq
				select {
				case <-ctx.Done():
					return ctx.Err()
				case items <- it:
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(items)
	}()

	var rep Report
	group.Go(func() error {
		pending := make(map[int]item)
		next := 0
		for it := range items {
			pending[it.seq] = it
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if err := handle(ready, &rep); err != nil {
					return err
				}
			}
		}
		return nil
	})
	err := group.Wait()
	return rep, err
}

// Files lists the files Run would process, in walk order.
func (s *Sorter) Files(ctx context.Context) ([]string, error) {
	ch := make(chan string)
	var out []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range ch {
			out = append(out, p)
		}
	}()
	err := s.walk(ctx, ch)
	close(ch)
	<-done
	return out, err
}

func (s *Sorter) walk(ctx context.Context, out chan<- string) error {
	root := filepath.Clean(s.opts.Source)
	dest := filepath.Clean(s.opts.Destination)
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if !s.opts.Recursive || p == dest || s.skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.exts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- p:
		}
		return nil
	})
}

// inspect reads what place needs to know about a file. It runs concurrently.
func (s *Sorter) inspect(p string) item {
	it := item{path: p}
	if it.w, it.h, it.err = pixels.Size(p); it.err != nil {
		return it
	}
	if s.opts.Index != nil {
		it.hash, it.err = s.opts.Hasher.File(p)
	}
	return it
}

// place moves a single file. It runs on one goroutine only, which keeps
// index mutation single-writer.
func (s *Sorter) place(it item, rep *Report) error {
	rep.Found++
	name := filepath.Base(it.path)
	if it.err != nil {
		rep.Failed++
		s.logf("We encountered an error opening %s | %v", name, it.err)
		return nil
	}
	bucket := s.opts.Classifier.Classify(it.w, it.h)
	dir := filepath.Join(s.opts.Destination, bucket)

	target := filepath.Join(dir, name)
	if _, err := os.Lstat(target); err == nil {
		same, err := s.sameContent(it, target)
		if err != nil {
			rep.Failed++
			s.logf("We encountered an error comparing %s to %s | %v", name, target, err)
			return nil
		}
		if same {
			if s.opts.Index != nil && !s.opts.DryRun {
				if _, err := s.opts.Index.Register(it.hash, target, it.path); err != nil {
					return err
				}
			}
			s.dups.Add(it.path)
			rep.Duplicates++
			s.logf("Duplicate of %s found at %s", name, target)
			return nil
		}
		if target, err = freeName(dir, name); err != nil {
			rep.Failed++
			s.logf("We encountered an error renaming %s | %v", name, err)
			return nil
		}
		rep.Renamed++
		s.logf("Duplicate file name found at %s --> Renaming file... %s", filepath.Join(dir, name), filepath.Base(target))
	}

	if s.opts.Index != nil && !s.opts.DryRun {
		v, err := s.opts.Index.Register(it.hash, target, it.path)
		if err != nil {
			return fmt.Errorf("%s: %w", it.path, err)
		}
		if v == hashindex.Duplicate {
			rep.Duplicates++
			s.logf("Duplicate hash of %s already indexed", name)
			return nil
		}
	}

	if s.opts.DryRun {
		rep.Moved++
		s.logf("Would move %s | %s >> %s", name, filepath.Dir(it.path), dir)
		return nil
	}
	if err := moveFile(it.path, target); err != nil {
		if s.opts.Index != nil {
			s.opts.Index.Repoint(it.hash, target, it.path)
		}
		rep.Failed++
		s.logf("We encountered an error moving %s | %v", name, err)
		return nil
	}
	rep.Moved++
	s.logf("Moved %s | %s >> %s", name, filepath.Dir(it.path), dir)
	return nil
}

func (s *Sorter) hashOnly(p string) item {
	it := item{path: p}
	it.hash, it.err = s.opts.Hasher.File(p)
	return it
}

func (s *Sorter) register(it item, rep *Report) error {
	rep.Found++
	if it.err != nil {
		rep.Failed++
		s.logf("We encountered an error hashing %s | %v", filepath.Base(it.path), it.err)
		return nil
	}
	if s.opts.DryRun {
		if p, ok := s.opts.Index.Lookup(it.hash); ok && filepath.Clean(p) != filepath.Clean(it.path) {
			rep.Duplicates++
			s.dups.Add(it.path)
			s.logf("Duplicate hash of %s recorded for %s", it.path, p)
		}
		return nil
	}
	v, err := s.opts.Index.LookupOrRegister(it.hash, it.path)
	if err != nil {
		return fmt.Errorf("%s: %w", it.path, err)
	}
	if v == hashindex.Duplicate {
		rep.Duplicates++
		s.dups.Add(it.path)
		s.logf("Duplicate hash of %s already indexed", it.path)
	}
	return nil
}

func (s *Sorter) sameContent(it item, other string) (bool, error) {
	h := it.hash
	if s.opts.Index == nil {
		var err error
		if h, err = s.opts.Hasher.File(it.path); err != nil {
			return false, err
		}
	}
	oh, err := s.opts.Hasher.File(other)
	if err != nil {
		return false, err
	}
	return h == oh, nil
}

func (s *Sorter) logf(format string, args ...interface{}) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}
