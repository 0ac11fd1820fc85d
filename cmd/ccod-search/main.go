package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccod-search/internal/config"
	"github.com/ccod-search/internal/db"
	"github.com/ccod-search/internal/loader"
	"github.com/ccod-search/internal/observability"
	"github.com/ccod-search/internal/search"
	"github.com/ccod-search/internal/web"
)

func main() {
	config.LoadEnv()
	log := observability.NewLogger(config.GetEnv("APP_ENV", "dev"))

	rootCmd := &cobra.Command{
		Use:   "ccod-search",
		Short: "CCOD property ownership search",
		Long:  `Loads the UK Land Registry CCOD extract into a relational database and serves a search and export API over it`,
	}

	rootCmd.AddCommand(createServeCmd(log))
	rootCmd.AddCommand(createLoadCmd(log))
	rootCmd.AddCommand(createPingCmd(log))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createServeCmd starts the HTTP API.
func createServeCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the search and export API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := web.FromEnv()
			server, err := web.NewServer(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return server.Start()
		},
	}
}

// createLoadCmd runs a full CSV load from the command line.
func createLoadCmd(log zerolog.Logger) *cobra.Command {
	var csvPath string

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load the CCOD CSV extract into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				csvPath = config.GetEnv("CCOD_CSV_PATH", "CCOD_FULL.csv")
			}

			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := loader.New(conn, log).Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			fmt.Printf("Rows processed:       %d\n", stats.TotalRows)
			fmt.Printf("Properties upserted:  %d\n", stats.PropertiesUpserted)
			fmt.Printf("Proprietors inserted: %d\n", stats.ProprietorsInserted)
			fmt.Printf("Skipped (no company): %d\n", stats.SkippedNoCompany)
			fmt.Printf("Malformed rows:       %d\n", stats.MalformedRows)
			return nil
		},
	}

	loadCmd.Flags().StringVar(&csvPath, "csv", "", "path to the CCOD CSV file (default $CCOD_CSV_PATH)")
	return loadCmd
}

// createPingCmd tests database connectivity and shows row counts.
func createPingCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.CreateSchema(); err != nil {
				return err
			}

			properties, proprietors, err := search.NewStore(conn).Counts(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("Database connection successful!")
			fmt.Printf("Properties loaded:  %d\n", properties)
			fmt.Printf("Proprietors loaded: %d\n", proprietors)
			return nil
		},
	}
}

func openDB() (*db.Connection, error) {
	conn, err := db.Open(
		config.GetEnv("DATABASE_URL", ""),
		config.GetEnv("SQLITE_PATH", "property_data.db"),
	)
	if err != nil {
		return nil, err
	}
	if err := conn.EnableForeignKeys(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
