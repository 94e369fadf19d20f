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
	"github.com/artyom/picsort/sorter"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe DIR",
	Short: "Find byte-identical images by content hash",
	Long: `Hash every image under DIR, record it in the hash database and offer
to delete files whose content is already recorded under another path.

The database defaults to the hash_database setting resolved against DIR.

Examples:
  picsort dedupe ~/Pictures
  picsort dedupe ~/Pictures --db ~/Pictures/hashdatabase.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		dir := args[0]
		if fi, err := os.Stat(dir); err != nil {
			return err
		} else if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = s.Directories.HashDatabase
			if !filepath.IsAbs(dbPath) {
				dbPath = filepath.Join(dir, dbPath)
			}
		}
		algorithm := s.Scan.HashAlgorithm
		if cmd.Flags().Changed("hash-algorithm") {
			algorithm, _ = cmd.Flags().GetString("hash-algorithm")
		}
		hasher, err := digest.New(algorithm)
		if err != nil {
			return err
		}
		recursive, _ := cmd.Flags().GetBool("recursive")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		logger := log.New(os.Stderr, "", 0)
		ix, err := hashindex.LoadFile(dbPath, hashindex.OSFiles{Hasher: hasher}, hashindex.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to load hash database: %w", err)
		}
		srt := sorter.New(sorter.Options{
			Source:    dir,
			Recursive: recursive,
			FileTypes: s.Scan.FileTypes,
			Index:     ix,
			Hasher:    hasher,
			DryRun:    dryRun,
			Logger:    logger,
		})
		rep, runErr := srt.Dedupe(cmd.Context())
		if !dryRun {
			if err := ix.SaveFile(dbPath); err != nil {
				return fmt.Errorf("failed to save hash database: %w", err)
			}
		}
		if runErr != nil {
			return runErr
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Hashed %d image(s), %d indexed\n", green("✓"), rep.Found-rep.Failed, ix.Len())
		dups := srt.Duplicates().Drain()
		if len(dups) == 0 {
			fmt.Printf("%s No duplicates found\n", green("✓"))
			return nil
		}
		if dryRun {
			yellow := color.New(color.FgYellow).SprintFunc()
			for _, p := range dups {
				fmt.Printf("%s %s\n", yellow("⚠"), p)
			}
			return nil
		}
		_, err = confirmDeletion(os.Stdout, dups)
		return err
	},
}

func init() {
	f := dedupeCmd.Flags()
	f.String("db", "", "hash database path")
	f.String("hash-algorithm", "", "hash algorithm: sha256 or blake2b256")
	f.BoolP("recursive", "r", true, "descend into subdirectories")
	f.Bool("dry-run", false, "list duplicates without touching the database")
	rootCmd.AddCommand(dedupeCmd)
}
