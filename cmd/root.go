// Package cmd is for command line interactions with the xcimport application
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/InformaticsMatters/fragalysis-api/config"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "xcimport",
	Short: `Extract ligands from aligned crystal structures.
Write each ligand's molecule and the structure without its ligands`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// readSettings reads the settings file passed to --config, if any
func readSettings() {
	settings := viper.GetString("config")
	if settings == "" {
		return
	}

	viper.SetConfigFile(settings)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read settings from %s: %v", settings, err)
	}
}

// set flags
func init() {
	cobra.OnInitialize(readSettings)
	config.Bind(viper.GetViper())

	// config is an optional settings file. Flags override its values
	RootCmd.PersistentFlags().StringP("config", "c", "", "settings file <YAML>")
	RootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log warnings and errors")
	RootCmd.PersistentFlags().String("metrics-file", "", "write prometheus counters to this textfile")
	RootCmd.PersistentFlags().String("nonligands", "", "YAML list of residues that are never ligands")

	viper.BindPFlag("config", RootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("quiet", RootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("metrics-file", RootCmd.PersistentFlags().Lookup("metrics-file"))
	viper.BindPFlag("nonligands", RootCmd.PersistentFlags().Lookup("nonligands"))

	RootCmd.SetOut(os.Stdout)
}
