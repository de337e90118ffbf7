package instance

import "testing"

func TestGetIDPrefersExplicitInstance(t *testing.T) {
	t.Setenv("GARAGE_INSTANCE_ID", "api-2")
	t.Setenv("HOSTNAME", "box")
	if got := GetID("local"); got != "api-2" {
		t.Fatalf("expected api-2, got %q", got)
	}
}

func TestGetIDFallback(t *testing.T) {
	t.Setenv("GARAGE_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID("local"); got != "local" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
