package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/drapon/notevault/internal/cli"
	"github.com/drapon/notevault/internal/config"
	"github.com/drapon/notevault/internal/vault"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system health: vault, config, sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func runDoctor() error {
	passed := 0
	failed := 0

	check := func(name string, hint string, fn func() (string, error)) {
		detail, err := fn()
		if err != nil {
			fmt.Printf("  %s✗%s %s: %s\n", cli.Red, cli.Reset, name, err)
			if hint != "" {
				fmt.Printf("    → %s\n", hint)
			}
			failed++
		} else {
			if detail != "" {
				fmt.Printf("  %s✓%s %s (%s)\n", cli.Green, cli.Reset, name, detail)
			} else {
				fmt.Printf("  %s✓%s %s\n", cli.Green, cli.Reset, name)
			}
			passed++
		}
	}

	fmt.Printf("\n%sNoteVault Health Check%s\n\n", cli.Bold, cli.Reset)

	// 1. Vault path
	check("Vault path", "run 'notevault vault add' or set VAULT_PATH", func() (string, error) {
		vp := config.VaultPath()
		if vp == "" {
			return "", fmt.Errorf("no vault found")
		}
		info, err := os.Stat(vp)
		if err != nil {
			return "", fmt.Errorf("path does not exist")
		}
		if !info.IsDir() {
			return "", fmt.Errorf("not a directory")
		}
		return cli.ShortenHome(vp), nil
	})

	// 2. Vault writable
	check("Vault writable", "check directory permissions", func() (string, error) {
		vp := config.VaultPath()
		if vp == "" {
			return "", fmt.Errorf("no vault")
		}
		probe := filepath.Join(vp, ".notevault_write_test")
		f, err := os.Create(probe)
		if err != nil {
			return "", fmt.Errorf("cannot create files")
		}
		f.Close()
		os.Remove(probe)
		return "", nil
	})

	// 3. Sandbox self-test
	check("Sandbox containment", "this is a bug — please report it", func() (string, error) {
		vp := config.VaultPath()
		if vp == "" {
			return "", fmt.Errorf("no vault")
		}
		g, err := vault.NewGuard(vp)
		if err != nil {
			return "", err
		}
		if _, err := g.Resolve("../../escape"); !errors.Is(err, vault.ErrAccessDenied) {
			return "", fmt.Errorf("traversal was not blocked")
		}
		if _, err := g.Resolve("notes/ok"); err != nil {
			return "", fmt.Errorf("valid path rejected: %v", err)
		}
		return "", nil
	})

	// 4. Config file
	check("Config", "fix or regenerate with 'notevault config init'", func() (string, error) {
		if _, err := config.LoadConfig(); err != nil {
			return "", err
		}
		return "", nil
	})

	// 5. Registry
	check("Vault registry", "delete ~/.config/notevault/vaults.json if corrupt", func() (string, error) {
		reg := config.LoadRegistry()
		return fmt.Sprintf("%s registered", cli.FormatNumber(len(reg.Vaults))), nil
	})

	fmt.Printf("\n  %d passed, %d failed\n\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
