package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSecrets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}
	return path
}

func TestChainPrefersSecretsFile(t *testing.T) {
	path := writeSecrets(t, "GOOGLE_API_KEY = \"from-file\"\n")
	t.Setenv("GOOGLE_API_KEY", "from-env")

	cred, err := Chain{SecretsFile{Path: path}, Env{}}.Resolve("GOOGLE_API_KEY")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cred.Value != "from-file" || cred.Source != "secrets file" {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestChainFallsBackToEnvironment(t *testing.T) {
	path := writeSecrets(t, "OTHER = \"x\"\nGOOGLE_API_KEY = \"  \"\n")
	t.Setenv("GOOGLE_API_KEY", "from-env")

	cred, err := Chain{SecretsFile{Path: path}, Env{}}.Resolve("GOOGLE_API_KEY")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cred.Value != "from-env" || cred.Source != "environment" {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestChainMissingSecretsFileIsNotAnError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	chain := Chain{SecretsFile{Path: filepath.Join(t.TempDir(), "absent.toml")}, Env{}}
	if cred, err := chain.Resolve("OPENAI_API_KEY"); err != nil || cred.Value != "sk-env" {
		t.Fatalf("unexpected result %+v err=%v", cred, err)
	}
}

func TestChainReportsNotFound(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := Chain{SecretsFile{}, Env{}}.Resolve("ANTHROPIC_API_KEY")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChainSurfacesMalformedSecrets(t *testing.T) {
	path := writeSecrets(t, "GOOGLE_API_KEY = \n")
	if _, err := (Chain{SecretsFile{Path: path}}).Resolve("GOOGLE_API_KEY"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestSecretsFileCaseInsensitiveFallback(t *testing.T) {
	path := writeSecrets(t, "google_api_key = \"lower\"\n")
	value, err := SecretsFile{Path: path}.Lookup("GOOGLE_API_KEY")
	if err != nil || value != "lower" {
		t.Fatalf("unexpected lookup %q err=%v", value, err)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CA_TEST_SET=file\nCA_TEST_NEW=file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CA_TEST_SET", "process")
	t.Setenv("CA_TEST_NEW", "")
	os.Unsetenv("CA_TEST_NEW")

	loaded, err := LoadEnvFile(path)
	if err != nil || !loaded {
		t.Fatalf("LoadEnvFile loaded=%v err=%v", loaded, err)
	}
	if got := os.Getenv("CA_TEST_SET"); got != "process" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("CA_TEST_NEW"); got != "file" {
		t.Fatalf("expected new variable from file, got %q", got)
	}

	if loaded, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil || loaded {
		t.Fatalf("missing file should be skipped, loaded=%v err=%v", loaded, err)
	}
}
