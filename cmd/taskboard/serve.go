package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/backend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task backend API",
	Long: `Run the task backend API.

The database is chosen by --database-url, DATABASE_URL or the config file:
postgres://... uses PostgreSQL, sqlite://path uses a sqlite file. Without
any of these a sqlite database in the state directory is used.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr        string
	serveDatabaseURL string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "database-url", "", "Database URL")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := env.cfg.Backend.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}
	if cmd.Flags().Changed("database-url") {
		env.cfg.Backend.DatabaseURL = serveDatabaseURL
	}
	if env.cfg.Backend.DatabaseURL == "" {
		dir, err := env.cfg.ResolveStateDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	databaseURL, err := env.cfg.ResolveDatabaseURL()
	if err != nil {
		return err
	}

	store, err := backend.OpenStore(cmd.Context(), databaseURL)
	if err != nil {
		return err
	}
	server, err := backend.NewServer(backend.ServerOptions{
		Store:          store,
		AllowedOrigins: env.cfg.Backend.AllowedOrigins,
		Logger:         env.logger.WithField("component", "backend"),
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	return server.Serve(addr)
}
