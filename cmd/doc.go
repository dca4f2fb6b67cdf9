// Package cmd implements the command-line interface of the dTriple triple store.
// Every invocation opens the local store on the configured engine, runs one
// operation and closes the store again.
//
// The package is organized into several subpackages:
//
//   - dataset: Commands for the dataset lifecycle (create, delete, list, export, import)
//   - statement: Commands for entities and statements (add, remove, match, range)
//     and the perf benchmark
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Storage flags can also be set through the environment (DTRIPLE_ENGINE,
// DTRIPLE_DATA_DIR, ...) or a .env file in the working directory.
//
// See dtriple -help for a list of all commands.
package cmd
