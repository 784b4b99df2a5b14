package cmd

import (
	"github.com/spf13/cobra"

	"github.com/InformaticsMatters/fragalysis-api/internal/xcimport"
)

// batchCmd is for decomposing every structure file in a directory
var batchCmd = &cobra.Command{
	Use:                        "batch",
	Short:                      "Extract the ligands of every structure file in a directory",
	Run:                        xcimport.BatchCmd,
	SuggestionsMinimumDistance: 2,
	Long: `
Run extract on every .pdb, .pdb.gz and .pdb.zst file under a directory,
including subdirectories. Each input uses the <stem>_smiles.txt beside it,
if any. A structure that fails is logged and the others continue; every
manifest of the run shares one run ID.`,
}

// set flags
func init() {
	batchCmd.Flags().StringP("in", "i", "", "input directory")
	batchCmd.Flags().StringP("biomol", "b", "", biomolHelp)
	addEngineFlags(batchCmd)

	batchCmd.MarkFlagRequired("in")

	RootCmd.AddCommand(batchCmd)
}
