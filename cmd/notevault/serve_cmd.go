package main

import (
	"github.com/spf13/cobra"

	"github.com/drapon/notevault/internal/config"
	mcpserver "github.com/drapon/notevault/internal/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve [vault-path]",
		Aliases: []string{"mcp"},
		Short:   "Start the MCP stdio server",
		Long:    "Serve the note vault to AI tools over MCP on stdin/stdout. The vault root must exist; diagnostics go to stderr.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The vault may also be given as a positional argument, for
			// clients that configure servers as "command args...".
			if len(args) > 0 {
				config.VaultOverride = args[0]
			}
			mcpserver.Version = Version
			return mcpserver.Serve()
		},
	}
}
