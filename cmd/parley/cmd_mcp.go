package main

import (
	"context"

	"github.com/spf13/cobra"

	mcpserver "github.com/felixgeelhaar/parley/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve parley tools over MCP (stdio by default)",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		srv := mcpserver.NewServer(mcpserver.Config{Service: a.service, Version: Version})
		if addr, _ := cmd.Flags().GetString("http"); addr != "" {
			return srv.ServeHTTP(ctx, addr)
		}
		return srv.ServeStdio(ctx)
	}),
}

func init() {
	mcpCmd.Flags().String("http", "", "Serve over HTTP on this address instead of stdio")
}
