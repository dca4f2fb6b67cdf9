package dataset

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/spf13/cobra"
	"io"
	"os"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates an empty dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			if err := localStore.CreateDataset(args[0]); err != nil {
				return err
			}
			fmt.Println("created successfully")
			return nil
		}),
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Deletes a dataset with all its statements",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			if err := localStore.DeleteDataset(util.Context(cmd), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		}),
	}
	existsCmd = &cobra.Command{
		Use:   "exists [name]",
		Short: "Checks if a dataset exists",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			ok, err := localStore.DatasetExists(args[0])
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		}),
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists datasets in ascending order",
		Args:  cobra.NoArgs,
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			var names []string
			var err error
			switch {
			case prefix != "" && (from != "" || to != ""):
				return fmt.Errorf("--prefix can not be combined with --from and --to")
			case prefix != "":
				names, err = localStore.MatchDatasetsPrefix(prefix)
			case from != "" || to != "":
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to must be given together")
				}
				names, err = localStore.MatchDatasetsRange(from, to)
			default:
				names, err = localStore.AllDatasets()
			}
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}),
	}
	infoCmd = &cobra.Command{
		Use:   "info [name]",
		Short: "Prints storage statistics of a dataset as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			info, err := localStore.GetDBInfo(args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}),
	}
	exportCmd = &cobra.Command{
		Use:   "export [name] [file]",
		Short: "Writes a snapshot of a dataset to a file (- for stdout)",
		Args:  cobra.ExactArgs(2),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) (err error) {
			var w io.Writer = os.Stdout
			if args[1] != "-" {
				f, createErr := os.Create(args[1])
				if createErr != nil {
					return createErr
				}
				defer func() {
					if closeErr := f.Close(); err == nil {
						err = closeErr
					}
				}()
				w = f
			}
			return localStore.Export(args[0], w)
		}),
	}
	importCmd = &cobra.Command{
		Use:   "import [name] [file]",
		Short: "Creates a dataset from a snapshot file (- for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			if err := localStore.Import(util.Context(cmd), args[0], r); err != nil {
				return err
			}
			fmt.Println("imported successfully")
			return nil
		}),
	}
)
