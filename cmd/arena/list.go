package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arena-sync/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List building and unit kinds",
	Long:  `Shows the behaviour table the client uses for placement checks and the UI.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "Buildings:")
	fmt.Fprintln(w, "  Kind\tName\tTitle\tCost\tRadius\tTiers\tSpawns")
	fmt.Fprintln(w, "  ----\t----\t-----\t----\t------\t-----\t------")
	for _, b := range registry.List(registry.Building) {
		spawns := ""
		if b.SpawnsUnits {
			spawns = "yes"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t%s\t%d\t%s\n",
			b.Kind, b.Name, b.Title, b.Cost, strconv.FormatFloat(b.Radius, 'f', -1, 64), int(b.MaxVariant)+1, spawns)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Units:")
	fmt.Fprintln(w, "  Kind\tName\tTitle\tRadius")
	fmt.Fprintln(w, "  ----\t----\t-----\t------")
	for _, u := range registry.List(registry.Unit) {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", u.Kind, u.Name, u.Title, strconv.FormatFloat(u.Radius, 'f', -1, 64))
	}
	w.Flush()

	fmt.Println()
	fmt.Println("Run 'arena play' and press 1-5 to pick a building.")
}
