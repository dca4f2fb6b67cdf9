package statement

import (
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// StatementCommands represents the statement command group
	StatementCommands = &cobra.Command{
		Use:   "statement",
		Short: "Add, remove and query statements of a dataset",
	}

	// EntityCommands represents the entity command group
	EntityCommands = &cobra.Command{
		Use:   "entity",
		Short: "Allocate entities",
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	StatementCommands.AddCommand(addCmd)
	StatementCommands.AddCommand(removeCmd)
	StatementCommands.AddCommand(listCmd)
	StatementCommands.AddCommand(matchCmd)
	StatementCommands.AddCommand(rangeCmd)
	StatementCommands.AddCommand(contextCmd)
	EntityCommands.AddCommand(newEntityCmd)

	// Add pattern flags
	for _, cmd := range []*cobra.Command{matchCmd, rangeCmd} {
		cmd.Flags().String("entity", "", util.WrapString("Only match statements of this entity"))
		cmd.Flags().String("attribute", "", util.WrapString("Only match statements with this attribute"))
	}
	matchCmd.Flags().String("value", "", util.WrapString("Only match statements with this value (e:<id>, s:<text>, i:<int>, f:<float>)"))

	// Add flags specific to new entity
	newEntityCmd.Flags().Int("count", 1, util.WrapString("How many entities to allocate"))
}
