package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artyom/picsort/digest"
	"github.com/artyom/picsort/hashindex"
	"github.com/artyom/picsort/settings"
	"github.com/artyom/picsort/sorter"
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Move images into resolution folders",
	Long: `Move every image in the source directory into a folder under the
destination named after its resolution class.

With hashing on, every file is looked up in the hash database first; files
whose content is already sorted are left in place and offered for deletion
at the end of the run.

Examples:
  # Sort using picsort.toml
  picsort sort

  # Sort a directory tree, checking hashes, and remember the choices
  picsort sort --source ~/Downloads --destination ~/Pictures -r --hash --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		if err := applySortFlags(cmd, &s); err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		if err := s.CheckDirectories(); err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		workers, _ := cmd.Flags().GetInt("workers")
		save, _ := cmd.Flags().GetBool("save")

		hasher, err := digest.New(s.Scan.HashAlgorithm)
		if err != nil {
			return err
		}
		logger := log.New(os.Stderr, "", 0)
		opts := sorter.Options{
			Source:      s.Directories.Source,
			Destination: s.Directories.Destination,
			Recursive:   s.Scan.Recursive,
			FileTypes:   s.Scan.FileTypes,
			IgnoreDirs:  s.Scan.IgnoreDirs,
			Classifier: sorter.Classifier{
				Buckets:     sorter.DefaultBuckets,
				Fallback:    sorter.DefaultFallback,
				Wallpapers:  s.Wallpapers.Sort,
				ScaleFactor: s.Wallpapers.ScaleFactor,
			},
			Hasher:  hasher,
			DryRun:  dryRun,
			Workers: workers,
			Logger:  logger,
		}

		dbPath := hashDatabasePath(s)
		if s.Scan.Hash {
			ix, err := hashindex.LoadFile(dbPath, hashindex.OSFiles{Hasher: hasher}, hashindex.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to load hash database: %w", err)
			}
			opts.Index = ix
		}

		srt := sorter.New(opts)
		if !dryRun {
			if err := srt.MakeDirs(); err != nil {
				return err
			}
		}
		rep, runErr := srt.Run(cmd.Context())
		printReport(rep)

		// a failed run still saves what it learned before failing
		if opts.Index != nil && !dryRun {
			if err := opts.Index.SaveFile(dbPath); err != nil {
				return fmt.Errorf("failed to save hash database: %w", err)
			}
		}
		if runErr != nil {
			return runErr
		}
		if !dryRun {
			if _, err := confirmDeletion(os.Stdout, srt.Duplicates().Drain()); err != nil {
				return err
			}
		}
		if save {
			if err := s.Save(settingsPath); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Finished sorting...\n", green("✓"))
		return nil
	},
}

func init() {
	f := sortCmd.Flags()
	f.StringP("source", "s", "", "directory to sort images from")
	f.StringP("destination", "d", "", "directory to sort images into")
	f.BoolP("recursive", "r", false, "descend into subdirectories of the source")
	f.Bool("hash", false, "check images against the hash database")
	f.String("hash-algorithm", "", "hash algorithm: sha256 or blake2b256")
	f.Bool("wallpapers", false, "sort wide images into a Wallpapers folder")
	f.Float64("scale-factor", 0, "width/height ratio above which an image is a wallpaper")
	f.Bool("dry-run", false, "report what would be moved without moving anything")
	f.Int("workers", 0, "number of concurrent readers (default GOMAXPROCS)")
	f.Bool("save", false, "write the effective settings back to the settings file")
	rootCmd.AddCommand(sortCmd)
}

// applySortFlags overrides s with the flags given on the command line.
func applySortFlags(cmd *cobra.Command, s *settings.Settings) error {
	f := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && f.Changed(name) {
			err = fn()
		}
	}
	set("source", func() (e error) { s.Directories.Source, e = f.GetString("source"); return })
	set("destination", func() (e error) { s.Directories.Destination, e = f.GetString("destination"); return })
	set("recursive", func() (e error) { s.Scan.Recursive, e = f.GetBool("recursive"); return })
	set("hash", func() (e error) { s.Scan.Hash, e = f.GetBool("hash"); return })
	set("hash-algorithm", func() (e error) { s.Scan.HashAlgorithm, e = f.GetString("hash-algorithm"); return })
	set("wallpapers", func() (e error) { s.Wallpapers.Sort, e = f.GetBool("wallpapers"); return })
	set("scale-factor", func() (e error) { s.Wallpapers.ScaleFactor, e = f.GetFloat64("scale-factor"); return })
	return err
}

// hashDatabasePath resolves a relative database path against the destination
// directory.
func hashDatabasePath(s settings.Settings) string {
	p := s.Directories.HashDatabase
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Directories.Destination, p)
}

func printReport(rep sorter.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("\n%s Moved %d of %d image(s)\n", green("✓"), rep.Moved, rep.Found)
	if rep.Renamed > 0 {
		fmt.Printf("%s Renamed %d on name collision\n", yellow("⚠"), rep.Renamed)
	}
	if rep.Duplicates > 0 {
		fmt.Printf("%s Found %d duplicate(s)\n", yellow("⚠"), rep.Duplicates)
	}
	if rep.Failed > 0 {
		fmt.Printf("%s Failed on %d image(s)\n", red("✗"), rep.Failed)
	}
}
