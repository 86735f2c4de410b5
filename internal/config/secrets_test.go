package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSecretsEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml.age")
	secrets := map[string]string{
		"API_KEY":  "sk-123",
		"DB_PASS":  "hunter2",
		"EMPTYISH": "",
	}

	if err := SaveSecretsEncrypted(path, "correct horse", secrets); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The on-disk file must not contain any plaintext value.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "sk-123") || strings.Contains(string(raw), "hunter2") {
		t.Fatal("plaintext secret visible in encrypted file")
	}

	loaded, err := LoadSecretsEncrypted(path, "correct horse")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(secrets) {
		t.Fatalf("loaded %d secrets, want %d", len(loaded), len(secrets))
	}
	for k, v := range secrets {
		if loaded[k] != v {
			t.Errorf("secret %s = %q, want %q", k, loaded[k], v)
		}
	}
}

func TestSecretsWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml.age")
	if err := SaveSecretsEncrypted(path, "right", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadSecretsEncrypted(path, "wrong"); err == nil {
		t.Fatal("expected decryption failure with wrong password")
	}
}

func TestSecretsFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml.age")
	if err := SaveSecretsEncrypted(path, "pw", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestLoadSecretsPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	if err := os.WriteFile(path, []byte("api-key: \"abc\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	secrets, err := LoadSecrets(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if secrets["api-key"] != "abc" {
		t.Errorf("api-key = %q", secrets["api-key"])
	}
}
