package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"gopkg.in/yaml.v3"
)

// LoadSecrets loads the secret store from a plaintext YAML file.
func LoadSecrets(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets: %w", err)
	}

	var secrets map[string]string
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}
	return secrets, nil
}

// LoadSecretsEncrypted loads the secret store from an age-encrypted file.
func LoadSecretsEncrypted(path string, password string) (map[string]string, error) {
	encData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encrypted secrets: %w", err)
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(encData), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting secrets (wrong password?): %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	var secrets map[string]string
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}
	return secrets, nil
}

// SaveSecretsEncrypted writes the secret store to an age-encrypted file.
// Plaintext never touches the disk.
func SaveSecretsEncrypted(path string, password string, secrets map[string]string) error {
	plaintext, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("serializing secrets: %w", err)
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("creating recipient: %w", err)
	}

	var encrypted bytes.Buffer
	writer, err := age.Encrypt(&encrypted, recipient)
	if err != nil {
		return fmt.Errorf("encrypting secrets: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("writing encrypted secrets: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	if err := os.WriteFile(path, encrypted.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	return nil
}
