package main

import (
	"github.com/spf13/cobra"

	"github.com/drapon/notevault/internal/watcher"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and audit note changes",
		Long:  "Monitor the vault filesystem for markdown changes. Changed notes are checked for malformed frontmatter and prompt-injection-like content after a debounce window.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return watcher.Watch(store.Guard())
		},
	}
}
