package main

import (
	"os"

	"github.com/closetkit/closet/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the cache and repeat checks as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			c, cleanup, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			srv := mcp.New(c, h, a.checker(), mcp.Settings{
				WindowDays: a.cfg.History.WindowDays,
				FreshFor:   a.cfg.Cache.FreshFor,
				Logger:     a.log,
			}, version)
			a.log.Info("closet mcp server ready", "cache", c.Key(), "entries", len(c.Entries()))
			return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
