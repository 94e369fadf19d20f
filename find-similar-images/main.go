// Command find-similar-images scans directory for images and reports any
// similar images (potential duplicates) by comparing their edges.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/artyom/picsort/edgecmp"
	"github.com/artyom/picsort/similar"
)

func main() {
	log.SetFlags(0)
	cfg := edgecmp.DefaultConfig()
	flag.IntVar(&cfg.MatchPercent, "match", cfg.MatchPercent, "percentage of sampled edges that must match")
	flag.IntVar(&cfg.NearMatchRadius, "radius", cfg.NearMatchRadius, "distance searched around a missed edge pixel")
	flag.IntVar(&cfg.ScalePercent, "scale", cfg.ScalePercent, "percentage images are scaled to before comparing")
	recursive := flag.Bool("r", true, "descend into subdirectories")
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, flag.Arg(0), cfg, *recursive)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, dir string, cfg edgecmp.Config, recursive bool) error {
	if dir == "" {
		dir = "."
	}
	cmp, err := edgecmp.New(cfg, nil)
	if err != nil {
		return err
	}
	f := &similar.Finder{
		Comparator: cmp,
		Recursive:  recursive,
		Logger:     log.Default(),
	}
	matches, err := f.Find(ctx, dir)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Result.Percent == 100 {
			log.Printf("possible duplicate: %q has the same edges as %q", m.Source, m.Comparison)
			continue
		}
		log.Printf("close match: %q has %d%% of its edges in %q", m.Source, m.Result.Percent, m.Comparison)
	}
	return nil
}
