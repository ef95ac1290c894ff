package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/b2bshop/backend/internal/infrastructure/config"
	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/b2bshop/backend/internal/infrastructure/migration"
	"github.com/b2bshop/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Schema migrations for the B2B shop.

Usage:
  migrate [-path dir] [-log-level level] <command> [args]

Offline commands:
  create <name> [desc]  Write the next numbered up/down pair
  list                  Print the available migrations

Database commands (connection from config.toml / B2B_DATABASE_*):
  up                    Apply everything pending
  down                  Roll everything back
  step <n>              Move n migrations, negative goes down
  goto <version>        Move to exactly this version
  version               Print the applied version
  force <version>       Mark version applied without running it

Without -path the migrations compiled into the binary are used.`

// dbCommand runs against an open migrator with the remaining arguments
type dbCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var dbCommands = map[string]dbCommand{
	"up":   func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() },
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := strconv.Atoi(arg(args, 0))
		if err != nil {
			return fmt.Errorf("step needs a signed count: %w", err)
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.ParseUint(arg(args, 0), 10, 32)
		if err != nil {
			return fmt.Errorf("goto needs a version: %w", err)
		}
		return m.GoTo(uint(v))
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.Atoi(arg(args, 0))
		if err != nil {
			return fmt.Errorf("force needs a version: %w", err)
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	dir := flag.String("path", "", "read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprintln(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	name, rest := args[0], args[1:]

	log := logger.New(logger.Config{Level: *level, Format: "console", Output: "stdout"})
	defer func() { _ = log.Sync() }()

	if *dir != "" {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			log.Fatal("Invalid migrations path", zap.Error(err))
		}
		*dir = abs
	}

	var err error
	switch name {
	case "create":
		err = create(*dir, rest, log)
	case "list":
		err = list(*dir)
	default:
		cmd, ok := dbCommands[name]
		if !ok {
			log.Error("Unknown command", zap.String("command", name))
			flag.Usage()
			os.Exit(2)
		}
		err = withMigrator(*dir, log, func(m *migration.Migrator) error { return cmd(m, log, rest) })
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("create needs a migration name")
	}
	if dir == "" {
		dir = "migrations"
	}
	mf, err := migration.CreateMigration(dir, args[0], arg(args, 1))
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(dir string) error {
	var src fs.FS = migrations.FS
	if dir != "" {
		src = os.DirFS(dir)
	}
	found, err := migration.ListMigrations(src)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no migrations")
	}
	for _, m := range found {
		fmt.Printf("  %06d  %s\n", m.Version, m.Name)
	}
	return nil
}

// withMigrator connects with the configured postgres DSN and closes both
// the migrator and the connection when run returns.
func withMigrator(dir string, log *zap.Logger, run func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres only, database.driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.New(db, dir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return run(m)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
