package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/cvforge/cvforge/internal/apperr"

	"github.com/lib/pq"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{
			name: "no rows maps to NOT_FOUND",
			err:  sql.ErrNoRows,
			kind: apperr.KindNotFound,
		},
		{
			name: "wrapped no rows maps to NOT_FOUND",
			err:  fmt.Errorf("query: %w", sql.ErrNoRows),
			kind: apperr.KindNotFound,
		},
		{
			name: "unique violation maps to DUPLICATE",
			err:  &pq.Error{Code: uniqueViolation, Constraint: "task_configs_name_key"},
			kind: apperr.KindDuplicate,
		},
		{
			name: "other pq errors pass through",
			err:  &pq.Error{Code: "42P01"},
			kind: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyError(tt.err, "config %q not found", "c1")
			if apperr.KindOf(got) != tt.kind {
				t.Fatalf("expected kind %q, got %v", tt.kind, got)
			}
		})
	}

	if classifyError(nil, "x") != nil {
		t.Fatalf("expected nil for nil error")
	}
}
