package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artyom/picsort/digest"
	"github.com/artyom/picsort/hashindex"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every entry of the hash database",
	Long: `Rehash the file recorded for every entry of the hash database and list
the entries whose file is gone or whose content changed.

With --prune, stale entries are removed and the database is saved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = hashDatabasePath(s)
		}
		prune, _ := cmd.Flags().GetBool("prune")
		hasher, err := digest.New(s.Scan.HashAlgorithm)
		if err != nil {
			return err
		}
		ix, err := hashindex.LoadFile(dbPath, hashindex.OSFiles{Hasher: hasher})
		if err != nil {
			return err
		}
		stale, err := ix.Audit()
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		if len(stale) == 0 {
			fmt.Printf("%s All %d entries verified\n", green("✓"), ix.Len())
			return nil
		}
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("%s %d of %d entries are stale:\n\n", yellow("⚠"), len(stale), ix.Len())
		for _, h := range stale {
			p, _ := ix.Lookup(h)
			fmt.Printf("  %s  %s\n", h, p)
		}
		if !prune {
			fmt.Printf("\nRun 'picsort check --prune' to remove them\n")
			return nil
		}
		for _, h := range stale {
			ix.Remove(h)
		}
		if err := ix.SaveFile(dbPath); err != nil {
			return err
		}
		fmt.Printf("\n%s Removed %d entries from %s\n", green("✓"), len(stale), filepath.Base(dbPath))
		return nil
	},
}

func init() {
	checkCmd.Flags().String("db", "", "hash database path (default from settings)")
	checkCmd.Flags().Bool("prune", false, "remove stale entries")
	rootCmd.AddCommand(checkCmd)
}
