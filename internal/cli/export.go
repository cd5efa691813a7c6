package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgalvez/undiacomohoy/internal/csvio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the diary as CSV",
		Long:  "Write the full dataset (day names plus every memory) as CSV to a file, or stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	store, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			exitErr("create file", err)
		}
		defer f.Close()
		out = f
	}

	if err := csvio.Export(cmd.Context(), store, out); err != nil {
		exitErr("export", err)
	}
	if len(args) == 1 {
		fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
	}
}
