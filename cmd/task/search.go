package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/metalagman/tasks/internal/task"
	"github.com/spf13/cobra"
)

func searchCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over titles, descriptions and tags",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := task.ParseSearchKind(kind)
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			found, err := store.Search(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			return a.printTasks(cmd.OutOrStdout(), found)
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(task.SearchFTS), "fts|semantic|hybrid")
	return cmd
}

func aggregateCmd(a *app, use, short string, fetch func(task.Tracker, context.Context) ([]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			values, err := fetch(store, cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				if values == nil {
					values = []string{}
				}
				return printJSON(cmd.OutOrStdout(), values)
			}
			for _, v := range values {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
