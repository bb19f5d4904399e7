package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"fiscal-sentinel/pkg/client"
)

func newImportCmd() *cobra.Command {
	var (
		direct   bool
		mappings []string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a statement file",
		Long:  "Uploads a csv, xlsx, xls, pdf or json statement. By default the server's column mapping is shown before confirming; --direct skips the preview.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runImport(cmd, c, args[0], direct, mappings)
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "import immediately, skipping the preview step")
	cmd.Flags().StringSliceVar(&mappings, "map", nil, "override a column mapping, e.g. --map amount=Value")
	return cmd
}

func runImport(cmd *cobra.Command, c *client.Client, path string, direct bool, mappings []string) error {
	out := cmd.OutOrStdout()

	workflow := client.NewImportWorkflow(c, func(count int) {
		fmt.Fprintf(out, "Imported %d transactions.\n", count)
	})

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := workflow.SelectFile(filepath.Base(path), "", file); err != nil {
		return err
	}

	ctx := context.Background()
	if direct {
		_, err := workflow.DirectUpload(ctx)
		return err
	}

	if err := workflow.Preview(ctx); err != nil {
		return err
	}

	for _, override := range mappings {
		field, column, err := splitMapping(override)
		if err != nil {
			return err
		}
		if err := workflow.SetMapping(field, column); err != nil {
			return err
		}
	}

	printMapping(out, workflow.Mapping())

	_, err = workflow.Confirm(ctx)
	return err
}

func splitMapping(override string) (string, string, error) {
	for i := 0; i < len(override); i++ {
		if override[i] == '=' {
			return override[:i], override[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid mapping %q, expected field=column", override)
}

func printMapping(out io.Writer, mapping map[string]string) {
	fields := make([]string, 0, len(mapping))
	for field := range mapping {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	fmt.Fprintln(out, "Column mapping:")
	for _, field := range fields {
		column := mapping[field]
		if column == "" {
			column = "(auto-detect)"
		}
		fmt.Fprintf(out, "  %-8s <- %s\n", field, column)
	}
}
