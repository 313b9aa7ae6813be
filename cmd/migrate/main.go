package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erp/bullion/internal/infrastructure/config"
	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/infrastructure/migration"
	"github.com/erp/bullion/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
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
	defer func() { _ = log.Sync() }()

	var source fs.FS = migrations.FS
	sourceName := "embedded"
	if migrationsPath != "" {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
		source, sourceName = os.DirFS(abs), abs
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("source", sourceName),
	)

	// Commands that only touch files
	switch command {
	case "create":
		if migrationsPath == "" {
			log.Fatal("create needs -path pointing at the migrations directory")
		}
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate -path migrations create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(sourceName, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		list, err := migration.ListMigrations(source)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(list) == 0 {
			log.Info("No migrations found")
			return
		}
		log.Info("Available migrations", zap.Int("count", len(list)))
		for _, m := range list {
			fmt.Println("  -", m.BaseName())
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
		log.Fatal("Failed to ping database",
			zap.String("host", cfg.Database.Host),
			zap.Error(err))
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version", "status":
		st, err := m.Status()
		if err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		log.Info("Migration status",
			zap.Uint("version", st.Version),
			zap.Bool("dirty", st.Dirty),
			zap.Int("applied", len(st.Applied)),
			zap.Int("pending", len(st.Pending)),
		)
		for _, p := range st.Pending {
			fmt.Println("  pending:", p.BaseName())
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Bullion ledger database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  status                Show current version and pending migrations
  force <version>       Force set migration version (repairs a dirty state)
  create <name> [desc]  Create the next migration file pair (needs -path)
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  BULLION_DATABASE_HOST, BULLION_DATABASE_PORT, BULLION_DATABASE_USER,
  BULLION_DATABASE_PASSWORD, BULLION_DATABASE_DBNAME, BULLION_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate -path migrations create add_swap_index "Index swapped sale items"`)
}
