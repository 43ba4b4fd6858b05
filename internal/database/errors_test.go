package database

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ErrorClass
		retryable bool
	}{
		{"nil", nil, ErrorClassPermanent, false},
		{"serialization", &pq.Error{Code: "40001"}, ErrorClassSerialization, true},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrorClassDeadlock, true},
		{"lock not available", &pq.Error{Code: "55P03"}, ErrorClassTransient, true},
		{"wrapped serialization", fmt.Errorf("insert order: %w", &pq.Error{Code: "40001"}), ErrorClassSerialization, true},
		{"unique violation", &pq.Error{Code: "23505"}, ErrorClassPermanent, false},
		{"no rows", sql.ErrNoRows, ErrorClassPermanent, false},
		{"plain", fmt.Errorf("boom"), ErrorClassPermanent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("Expected class %d, got %d", tt.want, got)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("Expected retryable %v, got %v", tt.retryable, got)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("wrap: %w", &pq.Error{Code: "23505"})) {
		t.Error("Expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("Foreign key violation is not a unique violation")
	}
}
