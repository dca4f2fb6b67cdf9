package metrics

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
)

// --------------------------------------------------------------------------
// Process wide counters
// --------------------------------------------------------------------------

var (
	EntitiesAllocated  = metrics.NewCounter(`dtriple_entities_allocated_total`)
	AttributesInterned = metrics.NewCounter(`dtriple_interned_total{kind="attribute"}`)
	AttributesReleased = metrics.NewCounter(`dtriple_released_total{kind="attribute"}`)
	StringsInterned    = metrics.NewCounter(`dtriple_interned_total{kind="string"}`)
	StringsReleased    = metrics.NewCounter(`dtriple_released_total{kind="string"}`)
	CASConflicts       = metrics.NewCounter(`dtriple_cas_conflicts_total`)
	KeysDecoded        = metrics.NewCounter(`dtriple_keys_decoded_total`)
	DuplicateContexts  = metrics.NewCounter(`dtriple_duplicate_contexts_total`)
	GCFailures         = metrics.NewCounter(`dtriple_gc_failures_total`)
	WriteLockWait      = metrics.NewHistogram(`dtriple_write_lock_wait_seconds`)
)

// --------------------------------------------------------------------------
// Per dataset counters
// --------------------------------------------------------------------------

// StatementsAdded returns the counter of statements added to a dataset.
func StatementsAdded(dataset string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dtriple_statements_added_total{dataset=%q}`, dataset))
}

// StatementsRemoved returns the counter of statements removed from a dataset.
func StatementsRemoved(dataset string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dtriple_statements_removed_total{dataset=%q}`, dataset))
}

// QueryScans returns the counter of index scans issued against a dataset.
func QueryScans(dataset string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dtriple_query_scans_total{dataset=%q}`, dataset))
}

// WritePrometheus writes all metrics in Prometheus text format.
func WritePrometheus(w io.Writer, processMetrics bool) {
	metrics.WritePrometheus(w, processMetrics)
}
