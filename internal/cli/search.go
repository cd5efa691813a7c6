package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search memories by text",
		Long:  "Case-insensitive substring search over every memory's summary text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	term := strings.Join(args, " ")

	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	results, err := store.Search(cmd.Context(), term)
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, res := range results {
		fmt.Printf("%d  %s  [%s]  %s\n",
			res.Memory.OriginalDate.Year, res.DayDisplayName, res.Memory.Kind, res.Memory.Summary())
	}
}
