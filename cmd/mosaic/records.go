package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	ingestMeta  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add text or image records to the store",
}

var ingestTextCmd = &cobra.Command{
	Use:   "text <content>",
	Short: "Index a text record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		meta, err := parseMeta(ingestMeta)
		if err != nil {
			return err
		}

		id, err := a.store.IngestText(cmd.Context(), args[0], meta)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var ingestImageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Upload and index an image record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		meta, err := parseMeta(ingestMeta)
		if err != nil {
			return err
		}

		id, err := a.store.IngestImage(cmd.Context(), data, filepath.Base(args[0]), meta)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find records by semantic similarity",
}

var searchTextCmd = &cobra.Command{
	Use:   "text <query>",
	Short: "Search records by text query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.store.SearchText(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Printf("%s\t%.4f\t%s\n", m.ID, m.Distance, m.Description)
		}
		return nil
	},
}

var searchImageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Search image records by example image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		matches, err := a.store.SearchImage(cmd.Context(), data, searchLimit)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Printf("%s\t%.4f\t%s\n", m.ID, m.Distance, m.Description)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored records (bounded peek, not exhaustive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, e := range a.store.List(0) {
			filename := e.Filename
			if filename == "" {
				filename = "Unknown"
			}
			path := e.Path
			if path == "" {
				path = "-"
			}
			fmt.Printf("%s\t%s\t%s\n", e.ID, filename, path)
		}
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <record-id>",
	Short: "Print the absolute file path backing a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.store.ResolveForRead(args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <record-id>",
	Short: "Delete a record and its backing file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteRecord(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

func init() {
	ingestTextCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "additional metadata as key=value (repeatable)")
	ingestImageCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "additional metadata as key=value (repeatable)")
	ingestCmd.AddCommand(ingestTextCmd, ingestImageCmd)

	searchTextCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of matches")
	searchImageCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of matches")
	searchCmd.AddCommand(searchTextCmd, searchImageCmd)

	rootCmd.AddCommand(ingestCmd, searchCmd, lsCmd, pathCmd, rmCmd)
}
