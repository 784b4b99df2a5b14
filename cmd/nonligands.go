package cmd

import (
	"github.com/spf13/cobra"

	"github.com/InformaticsMatters/fragalysis-api/internal/xcimport"
)

// nonligandsCmd is for listing the residues that are never extracted.
// Useful for checking why a residue wasn't treated as a ligand
var nonligandsCmd = &cobra.Command{
	Use:   "nonligands",
	Short: "List residues that are never treated as ligands",
	Long: `Lists the solvents, ions and other crystallization additives that
are left in apo files rather than extracted, by code and name.

	<Code>   <Name>

Pass --nonligands to list a custom registry instead.`,
	Run: xcimport.NonligandsCmd,
}

// set flags
func init() {
	RootCmd.AddCommand(nonligandsCmd)
}
