package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the diary",
		Long:  "Generate the 366 calendar days and the sample memories. Safe to run repeatedly: an already-initialized diary is left untouched.",
		Run:   runInit,
	}

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	err = store.InitializeIfFirstRun(cmd.Context(), func(done, total int) {
		fmt.Printf("\rgenerating days: %d/%d", done, total)
		if done == total {
			fmt.Println()
		}
	})
	if err != nil {
		exitErr("initialize", err)
	}
	fmt.Println("diary ready")
}
