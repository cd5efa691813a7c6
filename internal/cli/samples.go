package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	samplesCmd := &cobra.Command{
		Use:   "samples",
		Short: "Manage the seeded sample memories",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the sample memories",
		Long:  "Delete every seeded example memory. User-authored memories are left untouched.",
		Run:   runSamplesClear,
	}

	samplesCmd.AddCommand(clearCmd)
	RootCmd.AddCommand(samplesCmd)
}

func runSamplesClear(cmd *cobra.Command, args []string) {
	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	removed, err := store.ClearSampleMemories(cmd.Context())
	if err != nil {
		exitErr("clear samples", err)
	}
	fmt.Printf("%d sample memories removed\n", removed)
}
