// Package metrics holds the process metrics of the triple store, registered in the
// default github.com/VictoriaMetrics/metrics set. Counters that are scoped to a dataset
// carry a dataset label and are created on first use.
package metrics
