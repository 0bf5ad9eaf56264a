package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/tasks/internal/transfer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func exportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv, yaml or toml",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := transfer.ParseFormat(formatFor(format, out))
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return transfer.Export(cmd.OutOrStdout(), f, all)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := transfer.Export(file, f, all); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			log.Info().Int("tasks", len(all)).Str("path", out).Str("format", string(f)).Msg("export finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json|csv|yaml|toml (default from --out extension, else json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import tasks; failing rows are reported and skipped",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := transfer.ParseFormat(formatFor(format, path))
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer func() { _ = file.Close() }()
				r = file
			}
			inputs, err := transfer.Decode(r, f)
			if err != nil {
				return err
			}

			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			sum, err := transfer.Import(cmd.Context(), store, inputs)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "imported %d of %d tasks\n", sum.Imported, sum.Total)
			for _, e := range sum.Errors {
				_, _ = fmt.Fprintln(w, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json|csv|yaml|toml (default from file extension, else json)")
	return cmd
}

// formatFor returns the explicit format or one derived from the file extension.
func formatFor(explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case "csv", "json", "yaml", "yml", "toml":
		return ext
	default:
		return ""
	}
}
