package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arena-sync/internal/platform/tui"
	"github.com/vovakirdan/arena-sync/internal/skins"
	"github.com/vovakirdan/arena-sync/internal/storage"
)

var (
	flagClear bool
	flagPlain bool
)

var skinsCmd = &cobra.Command{
	Use:   "skins",
	Short: "Inspect or clear the skin cache",
	Long: `Browse the custom skins cached from game servers.

Without flags an interactive browser opens when stdout is a terminal.

Examples:
  arena skins
  arena skins --plain
  arena skins --clear`,
	Args: cobra.NoArgs,
	Run:  runSkins,
}

func init() {
	skinsCmd.Flags().BoolVar(&flagClear, "clear", false, "Forget every cached skin")
	skinsCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print a summary instead of the browser")
}

func runSkins(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitf("Error: %v", err)
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		exitf("Error opening skin cache: %v", err)
	}
	defer store.Close()

	if flagClear {
		n, err := skins.New(store).Clear()
		if err != nil {
			store.Close()
			exitf("Error clearing skins: %v", err)
		}
		fmt.Printf("Removed %d cached skins.\n", n)
		return
	}

	fd := int(os.Stdout.Fd())
	if !flagPlain && term.IsTerminal(fd) {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(fd); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunSkinBrowser(store, width, height); err != nil {
			store.Close()
			exitf("Error: %v", err)
		}
		return
	}

	stats, err := store.Stats()
	if err != nil {
		store.Close()
		exitf("Error reading skin cache: %v", err)
	}
	if len(stats) == 0 {
		fmt.Println("Skin cache is empty.")
		return
	}

	buckets := make([]string, 0, len(stats))
	for name := range stats {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	fmt.Printf("  %-8s  %-6s  %-8s  %s\n", "Bucket", "Keys", "Bytes", "Updated")
	fmt.Printf("  %-8s  %-6s  %-8s  %s\n", "------", "----", "-----", "-------")
	for _, name := range buckets {
		s := stats[name]
		fmt.Printf("  %-8s  %-6d  %-8d  %s\n", name, s.Count, s.Bytes, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}
