package main

import (
	"os"
	"testing"
)

func TestRepoFlagsAccumulate(t *testing.T) {
	var f repoFlags
	for _, v := range []string{"/srv/a", "/srv/b"} {
		if err := f.Set(v); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}
	if got := f.String(); got != "/srv/a,/srv/b" {
		t.Fatalf("String()=%q", got)
	}
}

func TestEnvOrFallsBackWhenUnset(t *testing.T) {
	const key = "MODELD_TEST_ENV_OR_UNSET"
	os.Unsetenv(key)
	if got := envOr(key, "fallback"); got != "fallback" {
		t.Fatalf("envOr=%q", got)
	}
	os.Setenv(key, "value")
	defer os.Unsetenv(key)
	if got := envOr(key, "fallback"); got != "value" {
		t.Fatalf("envOr=%q", got)
	}
}
