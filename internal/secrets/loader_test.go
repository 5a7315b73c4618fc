package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  top-secret \n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	secret, err := Load(Source{Name: "gemini api key", File: path, Value: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secret != "top-secret" {
		t.Fatalf("expected trimmed file content, got %q", secret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CVFORGE_TEST_SECRET", " from-env ")

	secret, err := Load(Source{Name: "api key", Env: "CVFORGE_TEST_SECRET", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secret != "from-env" {
		t.Fatalf("expected env value to win over inline, got %q", secret)
	}
}

func TestLoadFallsBackToInlineValue(t *testing.T) {
	secret, err := Load(Source{Name: "api key", Env: "CVFORGE_TEST_UNSET", Value: " inline "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secret != "inline" {
		t.Fatalf("expected inline value, got %q", secret)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(Source{Name: "database url"}); err == nil {
		t.Fatalf("expected error for empty source")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	if _, err := Load(Source{Name: "key", File: empty}); err == nil {
		t.Fatalf("expected error for empty secret file")
	}
}
