package domain

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionStatus
		ok   bool
	}{
		{"P", StatusPending, true},
		{"s", StatusSuccess, true},
		{"Success", StatusSuccess, true},
		{" failed ", StatusFailed, true},
		{"refunded", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusDisplay(t *testing.T) {
	if StatusPending.Display() != "Pending" || StatusSuccess.Display() != "Success" || StatusFailed.Display() != "Failed" {
		t.Fatalf("unexpected display names")
	}
	if TransactionStatus("X").Display() != "X" {
		t.Fatalf("unknown codes should display as themselves")
	}
}

func TestIsFinal(t *testing.T) {
	if (&Transaction{Status: StatusPending}).IsFinal() {
		t.Fatalf("pending must not be final")
	}
	if !(&Transaction{Status: StatusSuccess}).IsFinal() {
		t.Fatalf("success must be final")
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := NewValidationError("Amount is required")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("validation error must match ErrValidation")
	}
	if errors.Is(err, ErrGateway) {
		t.Fatalf("validation error must not match ErrGateway")
	}
	if err.Error() != "Amount is required" {
		t.Fatalf("message = %q", err.Error())
	}
}
