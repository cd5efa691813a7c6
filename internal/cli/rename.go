package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rename [MM-DD] [name...]",
		Short: "Name a day",
		Long:  "Give a day a special name, like \"04-23 Día del Libro\". Omitting the name clears it.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRename,
	}

	RootCmd.AddCommand(cmd)
}

func runRename(cmd *cobra.Command, args []string) {
	dayID := args[0]
	name := strings.Join(args[1:], " ")

	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	if err := store.RenameDay(cmd.Context(), dayID, name); err != nil {
		exitErr("rename day", err)
	}

	day, err := store.GetDay(cmd.Context(), dayID)
	if err != nil {
		exitErr("reload day", err)
	}
	if day.IsNamed() {
		fmt.Printf("%s is now %q\n", day.DisplayName, day.SpecialName)
	} else {
		fmt.Printf("%s has no special name\n", day.DisplayName)
	}
}
