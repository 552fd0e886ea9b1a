// Command tdbm inspects a relational database and generates a typed
// data-access layer: one bean and one DAO per table.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/moufmouf/tdbm/compiler/gen"
	"github.com/moufmouf/tdbm/compiler/gen/golang"
	"github.com/moufmouf/tdbm/compiler/inspect"
	"github.com/moufmouf/tdbm/compiler/schema"
)

var (
	configPath string
	driver     string
	dsn        string
	target     string
	pkgPath    string
	schemaName string
	cacheDir   string
	noCache    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tdbm",
	Short: "Generate a typed data-access layer from a database schema",
	Long: `tdbm inspects a relational database (PostgreSQL, MySQL or SQLite) and
generates one bean struct and one DAO per table: typed properties,
finders derived from indexes, and navigation methods derived from
foreign keys and junction tables.`,
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Inspect the database and write the generated package",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (default: tdbm.yaml when present)")
	generateCmd.Flags().StringVar(&driver, "driver", "", "database driver: postgres, mysql or sqlite")
	generateCmd.Flags().StringVar(&dsn, "dsn", "", "database connection string")
	generateCmd.Flags().StringVar(&target, "target", "", "output directory for generated files")
	generateCmd.Flags().StringVar(&pkgPath, "package", "", "import path of the generated package")
	generateCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "database schema name (postgres: public, mysql: current database)")
	generateCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "schema snapshot cache directory")
	generateCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the schema snapshot cache")
	generateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.override(driver, dsn, target, pkgPath, schemaName, cacheDir)
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := sql.Open(sqlDriverName(cfg.Driver), cfg.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	inspector, err := inspect.New(cfg.Driver, db, inspect.WithSchemaName(cfg.Schema))
	if err != nil {
		return err
	}
	if !noCache && cfg.CacheDir != "" {
		inspector = inspect.Cached(inspector, inspect.NewCache(cfg.CacheDir), cfg.DSN, logger)
	}

	snapshot, err := inspector.Inspect(ctx)
	if err != nil {
		return err
	}
	logger.Info("schema inspected", "tables", len(snapshot.Tables))

	genCfg, err := gen.NewConfig(
		gen.WithPackage(cfg.Package),
		gen.WithTarget(cfg.Target),
		gen.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	graph, err := gen.NewGraph(genCfg, schema.NewAnalyzer(snapshot))
	if err != nil {
		return err
	}
	if err := golang.Generate(ctx, graph); err != nil {
		return err
	}
	logger.Info("generation complete", "beans", len(graph.Beans), "target", cfg.Target)
	return nil
}

// sqlDriverName maps the configured driver to the registered
// database/sql driver.
func sqlDriverName(driver string) string {
	switch driver {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "pgx":
		return "postgres"
	}
	return driver
}
