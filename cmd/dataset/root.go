package dataset

import (
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// DatasetCommands represents the dataset command group
	DatasetCommands = &cobra.Command{
		Use:   "dataset",
		Short: "Create, list and delete datasets",
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	DatasetCommands.AddCommand(createCmd)
	DatasetCommands.AddCommand(deleteCmd)
	DatasetCommands.AddCommand(existsCmd)
	DatasetCommands.AddCommand(listCmd)
	DatasetCommands.AddCommand(infoCmd)
	DatasetCommands.AddCommand(exportCmd)
	DatasetCommands.AddCommand(importCmd)

	// Add flags specific to list
	listCmd.Flags().String("prefix", "", util.WrapString("Only list datasets whose name starts with this prefix"))
	listCmd.Flags().String("from", "", util.WrapString("Only list datasets with a name >= from (requires --to)"))
	listCmd.Flags().String("to", "", util.WrapString("Only list datasets with a name < to (requires --from)"))
}
