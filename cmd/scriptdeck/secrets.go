package main

import (
	"fmt"
	"os"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/scriptdeck/scriptdeck/internal/config"
)

func secretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the encrypted secret store",
	}
	cmd.AddCommand(secretsAddCmd(), secretsListCmd())
	return cmd
}

// secretsAddCmd adds one secret to the store without plaintext ever
// touching the disk.
func secretsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <key>",
		Short: "Add or replace a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			key := args[0]

			password, err := promptPassword("Enter store password: ")
			if err != nil {
				return err
			}

			secrets := make(map[string]string)
			if _, err := os.Stat(cfg.Secrets.File); err == nil {
				secrets, err = config.LoadSecretsEncrypted(cfg.Secrets.File, password)
				if err != nil {
					return err
				}
			}

			value, err := promptPassword(fmt.Sprintf("Enter value for %s: ", key))
			if err != nil {
				return err
			}
			secrets[key] = value

			if err := config.SaveSecretsEncrypted(cfg.Secrets.File, password, secrets); err != nil {
				return err
			}
			fmt.Printf("Stored %s (%d secrets total)\n", key, len(secrets))
			return nil
		},
	}
}

func secretsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List secret keys (never values)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			password, err := promptPassword("Enter store password: ")
			if err != nil {
				return err
			}
			secrets, err := config.LoadSecretsEncrypted(cfg.Secrets.File, password)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(secrets))
			for k := range secrets {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
