package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dTriple/cmd/dataset"
	"github.com/ValentinKolb/dTriple/cmd/statement"
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/ValentinKolb/dTriple/lib/metrics"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/ValentinKolb/dTriple/lib/tx"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dtriple",
		Short: "embedded triple store",
		Long: fmt.Sprintf(`dTriple (v%s)

An embedded triple store written in Go. Statements of the form
(entity, attribute, value) are indexed in seven permutations on top
of an ordered key-value engine (memory, pebble or bolt).`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dTriple",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dTriple v%s\n", Version)
		},
	}

	// statsCmd scans all datasets and prints the process metrics
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Scan all datasets and print the metrics in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE:  util.RunWithStore(func(s store.IStore, cmd *cobra.Command, args []string) error {
			names, err := s.AllDatasets()
			if err != nil {
				return err
			}
			for _, name := range names {
				err := s.Query(name, func(q *tx.QueryTx) error {
					for _, err := range q.AllStatements() {
						if err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			processMetrics, _ := cmd.Flags().GetBool("process")
			metrics.WritePrometheus(os.Stdout, processMetrics)
			return nil
		}),
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(dataset.DatasetCommands)
	RootCmd.AddCommand(statement.StatementCommands)
	RootCmd.AddCommand(statement.EntityCommands)
	RootCmd.AddCommand(statement.PerfCommand)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
	statsCmd.Flags().Bool("process", false, util.WrapString("Include Go runtime and process metrics"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
