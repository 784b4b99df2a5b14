package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/InformaticsMatters/fragalysis-api/internal/xcimport"
)

var (
	smilesHelp = `reference SMILES of the structure's ligands. Defaults to
<stem>_smiles.txt beside the input if it exists.`

	biomolHelp = `file of header lines, ex: a REMARK 350 biomolecule block,
to put at the top of each apo file.`
)

// extractCmd is for decomposing a single structure file
var extractCmd = &cobra.Command{
	Use:                        "extract",
	Short:                      "Extract the ligands of one structure file",
	Run:                        xcimport.ExtractCmd,
	SuggestionsMinimumDistance: 2,
	Long: `
Extract the ligands of an aligned PDB file. Each ligand gets a directory
under <out>/<target>/aligned with its isolated atoms, its molecule as a
molfile and SD file, a metadata row, a copy of the input and its maps, and
apo files. Apo, desolvated and solvent files of the whole structure, and a
manifest of everything written, go beside those directories.

Bond orders come from the reference SMILES if one is given, else from the
chemical component dictionary, else the ligand is written with the single
bonds perceived from its geometry.`,
}

// set flags
func init() {
	extractCmd.Flags().StringP("in", "i", "", "input structure <PDB>")
	extractCmd.Flags().StringP("smiles", "s", "", smilesHelp)
	extractCmd.Flags().StringP("biomol", "b", "", biomolHelp)
	addEngineFlags(extractCmd)

	extractCmd.MarkFlagRequired("in")

	RootCmd.AddCommand(extractCmd)
}

// addEngineFlags adds the flags shared by extract and batch, bound to viper
// when the command runs so the two commands don't overwrite each other
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", ".", "output root")
	cmd.Flags().StringP("target", "t", "", "target name, ex: Mpro")
	cmd.Flags().Bool("covalent", false, "attach the protein atom of each ligand's LINK record")
	cmd.Flags().BoolP("monomerize", "m", false, "name ligands of single chain inputs, ex: x0123_A")
	cmd.Flags().IntP("workers", "w", 0, "ligands processed at once (default: number of CPUs)")
	cmd.Flags().Bool("offline", false, "never query the chemical component dictionary")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("out", cmd.Flags().Lookup("out"))
		viper.BindPFlag("target", cmd.Flags().Lookup("target"))
		viper.BindPFlag("covalent", cmd.Flags().Lookup("covalent"))
		viper.BindPFlag("monomerize", cmd.Flags().Lookup("monomerize"))
		viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
		viper.BindPFlag("chemcomp.offline", cmd.Flags().Lookup("offline"))
	}
}
