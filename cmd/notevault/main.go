// Package main is the entrypoint for the notevault CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drapon/notevault/internal/config"
	"github.com/drapon/notevault/internal/note"
	"github.com/drapon/notevault/internal/vault"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notevault",
		Short: "Sandboxed markdown note vault with AI tool integration",
		Long:  "NoteVault — a markdown note vault served to AI tools over MCP, with path-sandboxed write/read/delete and name search.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(noteCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(vaultCmd())
	root.AddCommand(configCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	// Global --vault flag
	root.PersistentFlags().StringVar(&config.VaultOverride, "vault", "", "Vault name or path (overrides auto-detect)")

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the notevault version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("notevault %s\n", Version)
			return nil
		},
	}
}

// openStore resolves the configured vault and returns a note store bound to
// it. Every file-touching command goes through here.
func openStore() (*note.Store, error) {
	root := config.VaultPath()
	if root == "" {
		return nil, userError("No vault found",
			"run 'notevault vault add <name> <path>' or set VAULT_PATH")
	}
	guard, err := vault.NewGuard(root)
	if err != nil {
		return nil, fmt.Errorf("vault root: %w", err)
	}
	return note.NewStore(guard), nil
}

// ---------- error helpers ----------

type cliError struct {
	message string
	hint    string
}

func (e *cliError) Error() string {
	return fmt.Sprintf("%s\n  Hint: %s", e.message, e.hint)
}

func userError(message, hint string) error {
	return &cliError{message: message, hint: hint}
}
