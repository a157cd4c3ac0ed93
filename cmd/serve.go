package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanweng/lingtutor/internal/history"
	mcpserver "github.com/hanweng/lingtutor/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the lesson workflow as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.database.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "lingtutor MCP server started on stdio (provider=%s, model=%s)\n",
			d.cfg.Provider, d.cfg.Model)

		srv := mcpserver.NewServer(d.sessions, history.NewStore(d.database))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
