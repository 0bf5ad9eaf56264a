package main

import (
	"os/signal"
	"syscall"

	"github.com/metalagman/tasks/internal/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func mcpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve task tools over MCP on stdio",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeFn, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			log.Info().Str("db", a.cfg.Database.Path).Msg("mcp server starting on stdio")
			return mcp.NewServer(store, newTrigger(a.cfg), version).Run(ctx)
		},
	}
}
