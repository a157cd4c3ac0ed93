package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hanweng/lingtutor/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the lesson API server",
	Long:  `Starts the lingtutor HTTP server with the lesson session API and lesson history endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.database.Close()

		port := serverPort
		if port == 0 {
			port = d.cfg.Server.Port
		}

		srv := server.New(server.Config{
			Port:     port,
			DataDir:  d.cfg.DataDir,
			AllowAll: d.cfg.Server.AllowAllOrigins,
		}, d.database, d.sessions)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "lingtutor server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", d.cfg.Provider, d.cfg.Model)
		fmt.Fprintf(os.Stderr, "  Data: %s\n", d.cfg.DataDir)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
