package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgalvez/undiacomohoy/internal/csvio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a CSV export",
		Long:  "Merge a CSV file into the diary. The import is additive: existing data is never deleted, and importing the same file twice duplicates its memories.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open file", err)
		}
		defer f.Close()
		in = f
	}

	result, err := csvio.Import(cmd.Context(), store, in)
	if err != nil {
		exitErr("import", err)
	}
	fmt.Printf("%d rows imported, %d errors\n", result.Imported, result.Errors)
}
