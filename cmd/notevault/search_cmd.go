package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drapon/notevault/internal/config"
	"github.com/drapon/notevault/internal/search"
)

func searchCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes by name",
		Long:  "Match note names against a case-insensitive substring, or a /pattern/flags regular expression (flags: g i m u y).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			engine := search.NewEngine(store.Guard().Root(), config.SkipDirs)

			query := strings.Join(args, " ")
			matches, err := engine.Search(query)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if jsonOut {
				data, _ := json.MarshalIndent(matches, "", "  ")
				fmt.Println(string(data))
				return nil
			}
			if len(matches) == 0 {
				fmt.Println("No matching notes found.")
				return nil
			}
			for _, m := range matches {
				fmt.Println(m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
