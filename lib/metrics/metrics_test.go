package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestDatasetCounters(t *testing.T) {
	c := StatementsAdded("metrics/test")
	before := c.Get()
	StatementsAdded("metrics/test").Inc()
	if c.Get() != before+1 {
		t.Errorf("expected the same counter to be returned for the same dataset")
	}

	var buf bytes.Buffer
	WritePrometheus(&buf, false)
	if !strings.Contains(buf.String(), `dtriple_statements_added_total{dataset="metrics/test"}`) {
		t.Errorf("expected dataset counter in output:\n%s", buf.String())
	}
}
