package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artyom/picsort/similar"
)

var similarCmd = &cobra.Command{
	Use:   "similar DIR",
	Short: "Report visually similar images in a directory",
	Long: `Compare every pair of images in DIR by their edges and report the
pairs that match.

Examples:
  picsort similar ~/Pictures/Wallpapers
  picsort similar ~/Pictures -r --match 80`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := comparatorFromFlags(cmd)
		if err != nil {
			return err
		}
		recursive, _ := cmd.Flags().GetBool("recursive")
		workers, _ := cmd.Flags().GetInt("workers")
		f := &similar.Finder{
			Comparator: cmp,
			Recursive:  recursive,
			Workers:    workers,
			Logger:     log.New(os.Stderr, "", 0),
		}
		if s, err := loadSettings(); err == nil {
			f.Extensions = s.Scan.FileTypes
		}
		matches, err := f.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s No similar images found\n", green("✓"))
			return nil
		}
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Found %d similar pair(s):\n\n", yellow("⚠"), len(matches))
		for _, m := range matches {
			fmt.Printf("%s ~ %s (%d%% of %d samples)\n", cyan(m.Source), cyan(m.Comparison), m.Result.Percent, m.Result.Samples)
		}
		return nil
	},
}

func init() {
	addCompareFlags(similarCmd)
	similarCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	similarCmd.Flags().Int("workers", 0, "number of concurrent comparisons (default GOMAXPROCS)")
	rootCmd.AddCommand(similarCmd)
}
