package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/migration"
	"github.com/retailops/backend/migrations"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: the schema embedded in the binary; ./migrations for create)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// create writes files and always needs a real directory
	if command == "create" {
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsPath
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created successfully",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	}

	var source fs.FS = migrations.FS
	sourceName := "embedded"
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
		sourceName = migrationsPath
	}
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("source", sourceName),
	)

	if command == "list" {
		entries, err := migration.ListMigrations(source)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(entries) == 0 {
			log.Info("No migrations found")
			return
		}
		for _, e := range entries {
			down := ""
			if !e.HasDown {
				down = " (no down migration)"
			}
			fmt.Printf("  %06d  %s%s\n", e.Version, e.Name, down)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		var n int
		if n, err = strconv.Atoi(argument(args, log, "step count")); err == nil {
			err = m.Steps(n)
		}
	case "goto":
		var v uint64
		if v, err = strconv.ParseUint(argument(args, log, "version"), 10, 32); err == nil {
			err = m.GoTo(uint(v))
		}
	case "force":
		var v int
		if v, err = strconv.Atoi(argument(args, log, "version")); err == nil {
			err = m.Force(v)
		}
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			if version == 0 {
				log.Info("No migrations applied")
			} else {
				log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			}
		}
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func argument(args []string, log *zap.Logger, what string) string {
	if len(args) < 2 {
		log.Fatal("Missing argument", zap.String("command", args[0]), zap.String("expected", what))
	}
	return args[1]
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [-path dir] [-log-level level] <command> [args]

Commands:
  up               Apply all pending migrations
  down             Roll back all migrations
  steps N          Apply N migrations (negative N rolls back)
  goto V           Migrate up or down to version V
  version          Print the current version
  force V          Set the version without running migrations (clears dirty state)
  create NAME [D]  Write the next NNNNNN_NAME.{up,down}.sql pair
  list             List available migrations
`)
}
