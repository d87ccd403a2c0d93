package moderation

import (
	"errors"
	"strings"
	"testing"
)

func TestAuditReason(t *testing.T) {
	got, err := AuditReason("mod#0001", "42", "spamming")
	if err != nil {
		t.Fatalf("audit reason: %v", err)
	}
	if got != "mod#0001 (ID: 42): spamming" {
		t.Fatalf("unexpected reason: %q", got)
	}

	got, err = AuditReason("mod#0001", "42", "")
	if err != nil {
		t.Fatalf("audit reason: %v", err)
	}
	if got != "Action done by mod#0001 (ID: 42)" {
		t.Fatalf("unexpected empty-reason fallback: %q", got)
	}
}

func TestAuditReasonTooLong(t *testing.T) {
	_, err := AuditReason("mod#0001", "42", strings.Repeat("x", 600))
	if !errors.Is(err, ErrReasonTooLong) {
		t.Fatalf("expected ErrReasonTooLong, got %v", err)
	}
}
