package store

import (
	"github.com/cockroachdb/errors"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := NewError(RetCDatasetNotFound, "dataset test not found")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("Expected error to match ErrDatasetNotFound")
	}
	if errors.Is(err, ErrDatasetExists) {
		t.Errorf("Expected error not to match ErrDatasetExists")
	}
	if got := err.Error(); got != "StoreError (code DatasetNotFound): dataset test not found" {
		t.Errorf("Unexpected message %q", got)
	}
	if RetCode(99).String() != "Unknown" {
		t.Errorf("Expected Unknown for undefined code")
	}
}
