package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "days",
		Short: "List the days of the diary",
		Long:  "List all 366 days in calendar order. With --named, only days that carry a special name.",
		Run:   runDays,
	}

	cmd.Flags().Bool("named", false, "Only show named days")
	cmd.Flags().Bool("with-memories", false, "Only show days that have memories")

	RootCmd.AddCommand(cmd)
}

func runDays(cmd *cobra.Command, args []string) {
	namedOnly, _ := cmd.Flags().GetBool("named")
	withMemories, _ := cmd.Flags().GetBool("with-memories")

	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	days, err := store.ListDays(cmd.Context())
	if err != nil {
		exitErr("list days", err)
	}

	for _, day := range days {
		if namedOnly && !day.IsNamed() {
			continue
		}
		if withMemories && !day.HasMemories {
			continue
		}
		line := fmt.Sprintf("%s  %s", day.ID, day.DisplayName)
		if day.IsNamed() {
			line += fmt.Sprintf("  (%s)", day.SpecialName)
		}
		if day.HasMemories {
			line += "  *"
		}
		fmt.Println(line)
	}
}
