package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// bulkThreshold is the number of duplicates above which a single prompt
// covers all of them.
const bulkThreshold = 5

// lineReader is the part of *readline.Instance the prompts use.
type lineReader interface {
	SetPrompt(string)
	Readline() (string, error)
}

func newPrompt() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "n",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// askYesNo asks until it gets y, n or an empty answer, which means no. An
// interrupt or end of input also means no.
func askYesNo(r lineReader, out io.Writer, question string) (bool, error) {
	r.SetPrompt(question + " (y/N)? ")
	for {
		line, err := r.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		}
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(out, "%s Your entry was invalid; please select between 'y/N'\n", yellow("⚠"))
	}
}

// deleteDuplicates offers to remove each path. More than bulkThreshold paths
// get a single prompt for all of them. It returns the number of files removed.
func deleteDuplicates(r lineReader, out io.Writer, paths []string, assumeYes bool) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(out, "Found %d duplicate images...\n", len(paths))

	bulk := assumeYes
	if !bulk && len(paths) > bulkThreshold {
		ok, err := askYesNo(r, out, fmt.Sprintf("Delete all %d duplicate images", len(paths)))
		if err != nil || !ok {
			return 0, err
		}
		bulk = true
	}
	var removed int
	for _, p := range paths {
		if !bulk {
			ok, err := askYesNo(r, out, "Delete duplicate file? "+p)
			if err != nil {
				return removed, err
			}
			if !ok {
				continue
			}
		}
		if err := os.Remove(p); err != nil {
			fmt.Fprintf(out, "%s Failed to delete %s: %v\n", red("✗"), p, err)
			continue
		}
		fmt.Fprintf(out, "%s Deleted %s\n", green("✓"), p)
		removed++
	}
	return removed, nil
}

// confirmDeletion opens a prompt on the terminal only when one is needed.
func confirmDeletion(out io.Writer, paths []string) (int, error) {
	if len(paths) == 0 || noPrompt {
		return deleteDuplicates(nil, out, paths, true)
	}
	rl, err := newPrompt()
	if err != nil {
		return 0, err
	}
	defer rl.Close()
	return deleteDuplicates(rl, out, paths, false)
}
