package matchid

import "testing"

func TestNewProducesUniqueNonEmptyIdentifiers(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	if a == "" || b == "" {
		t.Fatalf("expected non-empty identifiers, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("expected two calls to New to mint distinct identifiers")
	}
}

func TestNewSessionProducesUniqueNonEmptyIdentifiers(t *testing.T) {
	t.Parallel()

	a := NewSession()
	b := NewSession()

	if a == "" || b == "" {
		t.Fatalf("expected non-empty session identifiers, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("expected two calls to NewSession to mint distinct identifiers")
	}
}
