package validation

import (
	"strings"
	"testing"

	"github.com/seu-repo/evcharge/internal/domain"
)

type sample struct {
	UserID  string   `validate:"required"`
	Percent *float64 `validate:"omitempty,gte=0,lte=100"`
}

func TestStruct(t *testing.T) {
	if err := Struct(&sample{UserID: "u1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	over := 120.0
	err := Struct(&sample{Percent: &over})
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UserID is required") || !strings.Contains(msg, "Percent must be <= 100") {
		t.Errorf("Unexpected message %q", msg)
	}
}
