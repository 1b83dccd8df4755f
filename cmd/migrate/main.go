package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"worktrack/internal/config"
	"worktrack/internal/store"
)

const usage = `usage: migrate [-database URL] <command>

commands:
  up         apply all pending migrations
  down       roll back every migration
  steps N    apply N migrations, negative N rolls back
  version    print the current schema version
`

func main() {
	cfg := config.Load()

	databaseURL := flag.String("database", cfg.DatabaseURL, "PostgreSQL connection URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := store.NewMigrator(*databaseURL)
	if err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
	defer m.Close()

	if err := run(m, args); err != nil {
		m.Close()
		log.Fatalf("[Migrate] %s failed: %v", args[0], err)
	}
}

func run(m *store.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) < 2 {
			return fmt.Errorf("steps requires a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d dirty=%v\n", v, dirty)
		return nil
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", args[0])
}
