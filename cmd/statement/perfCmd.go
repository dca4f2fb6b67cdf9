package statement

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dTriple/cmd/util"
	"github.com/ValentinKolb/dTriple/lib/common"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/ValentinKolb/dTriple/lib/tx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	// PerfCommand runs throughput tests against a scratch dataset
	PerfCommand = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the configured engine",
		Long:    "Runs add, match, range and remove benchmarks on a scratch dataset that is deleted afterwards.",
		RunE:    util.RunWithStore(runPerf),
		PreRunE: processPerfConfig,
	}
	perfDataset    = "__perf"
	perfNumThreads = 10
	perfEntities   = 100
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	PerfCommand.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,range)"))
	key = "threads"
	PerfCommand.Flags().Int(key, 10, util.WrapString("Number of goroutines to use for the benchmark"))
	key = "entities"
	PerfCommand.Flags().Int(key, 100, util.WrapString("How many different entities to use for the tests"))
	key = "csv"
	PerfCommand.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfEntities = max(viper.GetInt("entities"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(s store.IStore, cmd *cobra.Command, _ []string) error {
	ctx := util.Context(cmd)

	fmt.Println("Performance testing tool for dTriple")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	// prepare the scratch dataset
	if err := s.CreateDataset(perfDataset); err != nil {
		return err
	}
	defer func() {
		if err := s.DeleteDataset(context.Background(), perfDataset); err != nil {
			log.Printf("error deleting dataset %s: %v\n", perfDataset, err)
		}
	}()
	entities, err := newEntities(ctx, s)
	if err != nil {
		return err
	}

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	addResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("add") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				st := model.Statement{Entity: entities(counter), Attribute: "score", Value: model.IntegerLiteral(counter)}
				err := s.Write(ctx, perfDataset, func(w *tx.WriteTx) error {
					_, err := w.AddStatement(st)
					return err
				})
				if err != nil {
					log.Printf("(add) - error adding statement: %v\n", err)
				}
				counter++
			}
		})
	})

	results["add"] = addResult
	printResult("add", addResult)

	matchEntityResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("match-entity") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				e := entities(counter)
				err := s.Query(perfDataset, func(q *tx.QueryTx) error {
					_, err := tx.Collect(q.MatchStatements(&e, nil, nil))
					return err
				})
				if err != nil {
					log.Printf("(match-entity) - error matching statements: %v\n", err)
				}
				counter++
			}
		})
	})

	results["match-entity"] = matchEntityResult
	printResult("match-entity", matchEntityResult)

	rangeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("range") {
			return
		}

		attribute := model.Attribute("score")
		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				r := model.Range{Start: model.IntegerLiteral(counter), End: model.IntegerLiteral(counter + 10)}
				err := s.Query(perfDataset, func(q *tx.QueryTx) error {
					_, err := tx.Collect(q.MatchStatementsRange(nil, &attribute, r))
					return err
				})
				if err != nil {
					log.Printf("(range) - error matching range: %v\n", err)
				}
				counter++
			}
		})
	})

	results["range"] = rangeResult
	printResult("range", rangeResult)

	removeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("remove") {
			return
		}

		// add one statement per iteration up front
		persisted := make([]model.PersistedStatement, 0, b.N)
		err := s.Write(ctx, perfDataset, func(w *tx.WriteTx) error {
			for i := 0; i < b.N; i++ {
				ps, err := w.AddStatement(model.Statement{Entity: entities(i), Attribute: "tag", Value: model.StringLiteral("t" + strconv.Itoa(i))})
				if err != nil {
					return err
				}
				persisted = append(persisted, ps)
			}
			return nil
		})
		if err != nil {
			log.Printf("(remove) - error adding statements: %v\n", err)
			return
		}

		b.ResetTimer()

		for _, ps := range persisted {
			err := s.Write(ctx, perfDataset, func(w *tx.WriteTx) error {
				_, err := w.RemoveStatement(ps)
				return err
			})
			if err != nil {
				log.Printf("(remove) - error removing statement: %v\n", err)
			}
		}
	})

	results["remove"] = removeResult
	printResult("remove", removeResult)

	// Write results to CSV if path is provided
	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results, util.GetConfig()); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("\nresults written to %s\n", csvPath)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// newEntities allocates the test entities and returns a function to get one by
// index (with wraparound)
func newEntities(ctx context.Context, s store.IStore) (func(int) model.Entity, error) {
	entities := make([]model.Entity, perfEntities)
	err := s.Write(ctx, perfDataset, func(w *tx.WriteTx) error {
		for i := range entities {
			e, err := w.NewEntity()
			if err != nil {
				return err
			}
			entities[i] = e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return func(i int) model.Entity {
		return entities[i%perfEntities]
	}, nil
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.Config) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Engine", "NoSync", "Threads", "Entities",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			string(config.Engine),
			strconv.FormatBool(config.NoSync),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfEntities),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
