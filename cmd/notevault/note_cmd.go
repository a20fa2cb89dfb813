package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Work with individual notes",
	}
	cmd.AddCommand(noteWriteCmd())
	cmd.AddCommand(noteCatCmd())
	cmd.AddCommand(noteRmCmd())
	cmd.AddCommand(noteInfoCmd())
	return cmd
}

func noteWriteCmd() *cobra.Command {
	var (
		content  string
		fromFile string
		appendTo bool
	)
	cmd := &cobra.Command{
		Use:   "write [path]",
		Short: "Create or update a note",
		Long:  "Write a note at the given vault-relative path. Content comes from --content, --file, or stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			text, err := resolveContent(content, fromFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			rel, err := store.Write(args[0], text, appendTo)
			if err != nil {
				return err
			}
			if appendTo {
				fmt.Printf("Appended to %s\n", rel)
			} else {
				fmt.Printf("Wrote %s\n", rel)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Note content (reads stdin if neither --content nor --file is given)")
	cmd.Flags().StringVar(&fromFile, "file", "", "Read note content from a file")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Append to the existing note instead of overwriting")
	return cmd
}

// resolveContent picks the note body from the flag, a file, or stdin.
func resolveContent(content, fromFile string, stdin io.Reader) (string, error) {
	if content != "" && fromFile != "" {
		return "", fmt.Errorf("--content and --file are mutually exclusive")
	}
	if content != "" {
		return content, nil
	}
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fromFile, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func noteCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat [path...]",
		Short: "Print one or more notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			failures := 0
			for _, r := range store.ReadMany(args) {
				if len(args) > 1 {
					fmt.Printf("==> %s <==\n", r.Path)
				}
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", r.Err)
					failures++
					continue
				}
				fmt.Print(r.Content)
				if len(r.Content) > 0 && r.Content[len(r.Content)-1] != '\n' {
					fmt.Println()
				}
			}
			if failures == len(args) {
				return fmt.Errorf("no notes could be read")
			}
			return nil
		},
	}
}

func noteRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [path]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func noteInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [path]",
		Short: "Show note metadata (frontmatter, size, modified time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			info, err := store.Info(args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}
