// Command picsort sorts images into folders by resolution, finds exact
// duplicates by content hash and near duplicates by edge comparison.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/artyom/picsort/settings"
)

var (
	settingsPath string
	noPrompt     bool
)

var rootCmd = &cobra.Command{
	Use:   "picsort",
	Short: "Sort images by resolution and weed out duplicates",
	Long: `picsort moves images into folders named after their resolution class
(Low Res, Mid Res, High Res, UHD Res, Phone Res, UHDP Res and optionally
Wallpapers), keeps a content hash database to catch exact duplicates, and
compares images by their edges to find near duplicates.

Settings are read from a TOML file, picsort.toml by default or the path named
by PICSORT_SETTINGS (which may come from a .env file). Flags override it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
		if !cmd.Flags().Changed("settings") {
			settingsPath = settings.DefaultPath()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "f", settings.DefaultFile, "settings file (default from $"+settings.EnvPath+")")
	rootCmd.PersistentFlags().BoolVarP(&noPrompt, "yes", "y", false, "answer yes to every deletion prompt")
}

// loadSettings reads the settings file, falling back to defaults when it does
// not exist yet.
func loadSettings() (settings.Settings, error) {
	s, err := settings.Load(settingsPath)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return settings.Default(), nil
	}
	return s, err
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		os.Exit(1)
	}
}
