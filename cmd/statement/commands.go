package statement

import (
	"fmt"
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/ValentinKolb/dTriple/lib/tx"
	"github.com/spf13/cobra"
)

var (
	newEntityCmd = &cobra.Command{
		Use:   "new [dataset]",
		Short: "Allocates fresh entities and prints their ids",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			return localStore.Write(util.Context(cmd), args[0], func(w *tx.WriteTx) error {
				for i := 0; i < count; i++ {
					e, err := w.NewEntity()
					if err != nil {
						return err
					}
					fmt.Println(e)
				}
				return nil
			})
		}),
	}
	addCmd = &cobra.Command{
		Use:   "add [dataset] [entity] [attribute] [value]",
		Short: "Adds a statement and prints it with its context",
		Args:  cobra.ExactArgs(4),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			s, err := parseStatement(args[1], args[2], args[3])
			if err != nil {
				return err
			}
			return localStore.Write(util.Context(cmd), args[0], func(w *tx.WriteTx) error {
				ps, err := w.AddStatement(s)
				if err != nil {
					return err
				}
				fmt.Println(ps)
				return nil
			})
		}),
	}
	removeCmd = &cobra.Command{
		Use:   "remove [dataset] [entity] [attribute] [value] [context]",
		Short: "Removes a persisted statement",
		Args:  cobra.ExactArgs(5),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			s, err := parseStatement(args[1], args[2], args[3])
			if err != nil {
				return err
			}
			contextID, err := util.ParseEntity(args[4])
			if err != nil {
				return err
			}
			return localStore.Write(util.Context(cmd), args[0], func(w *tx.WriteTx) error {
				removed, err := w.RemoveStatement(model.PersistedStatement{Statement: s, Context: contextID})
				if err != nil {
					return err
				}
				if removed {
					fmt.Println("removed successfully")
				} else {
					fmt.Println("statement not found")
				}
				return nil
			})
		}),
	}
	listCmd = &cobra.Command{
		Use:   "list [dataset]",
		Short: "Lists all statements of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			return localStore.Query(args[0], func(q *tx.QueryTx) error {
				return printStatements(q.AllStatements())
			})
		}),
	}
	matchCmd = &cobra.Command{
		Use:   "match [dataset]",
		Short: "Lists the statements matching a pattern, unset fields match anything",
		Args:  cobra.ExactArgs(1),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			entity, attribute, err := parsePattern(cmd)
			if err != nil {
				return err
			}
			var value model.Value
			if raw, _ := cmd.Flags().GetString("value"); raw != "" {
				if value, err = util.ParseValue(raw); err != nil {
					return err
				}
			}
			return localStore.Query(args[0], func(q *tx.QueryTx) error {
				return printStatements(q.MatchStatements(entity, attribute, value))
			})
		}),
	}
	rangeCmd = &cobra.Command{
		Use:   "range [dataset] [start] [end]",
		Short: "Lists the statements with a literal value in [start, end)",
		Args:  cobra.ExactArgs(3),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			entity, attribute, err := parsePattern(cmd)
			if err != nil {
				return err
			}
			start, err := util.ParseValue(args[1])
			if err != nil {
				return err
			}
			end, err := util.ParseValue(args[2])
			if err != nil {
				return err
			}
			r := model.Range{Start: start, End: end}
			return localStore.Query(args[0], func(q *tx.QueryTx) error {
				return printStatements(q.MatchStatementsRange(entity, attribute, r))
			})
		}),
	}
	contextCmd = &cobra.Command{
		Use:   "context [dataset] [context]",
		Short: "Prints the statement with the given context",
		Args:  cobra.ExactArgs(2),
		RunE:  util.RunWithStore(func(localStore store.IStore, cmd *cobra.Command, args []string) error {
			contextID, err := util.ParseEntity(args[1])
			if err != nil {
				return err
			}
			return localStore.Query(args[0], func(q *tx.QueryTx) error {
				ps, ok, err := q.StatementForContext(contextID)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("statement not found")
					return nil
				}
				fmt.Println(ps)
				return nil
			})
		}),
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseStatement(entity, attribute, value string) (model.Statement, error) {
	e, err := util.ParseEntity(entity)
	if err != nil {
		return model.Statement{}, err
	}
	a, err := util.ParseAttribute(attribute)
	if err != nil {
		return model.Statement{}, err
	}
	v, err := util.ParseValue(value)
	if err != nil {
		return model.Statement{}, err
	}
	return model.Statement{Entity: e, Attribute: a, Value: v}, nil
}

// parsePattern reads the --entity and --attribute flags, nil means unset.
func parsePattern(cmd *cobra.Command) (*model.Entity, *model.Attribute, error) {
	var entity *model.Entity
	var attribute *model.Attribute
	if raw, _ := cmd.Flags().GetString("entity"); raw != "" {
		e, err := util.ParseEntity(raw)
		if err != nil {
			return nil, nil, err
		}
		entity = &e
	}
	if raw, _ := cmd.Flags().GetString("attribute"); raw != "" {
		a, err := util.ParseAttribute(raw)
		if err != nil {
			return nil, nil, err
		}
		attribute = &a
	}
	return entity, attribute, nil
}

func printStatements(seq tx.Statements) error {
	for ps, err := range seq {
		if err != nil {
			return err
		}
		fmt.Println(ps)
	}
	return nil
}
