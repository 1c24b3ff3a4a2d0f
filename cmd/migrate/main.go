package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/repository/postgres"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-steps N] up|down|version")
	}
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	dsn := cfg.Database.DSN()
	fmt.Printf("Using database at %s:%d...\n", cfg.Database.Host, cfg.Database.Port)

	switch flag.Arg(0) {
	case "up", "":
		if err := postgres.RunMigrations(dsn); err != nil {
			fail(err)
		}
		fmt.Println("✅ migrations applied")

	case "down":
		if err := postgres.RollbackMigrations(dsn, *steps); err != nil {
			fail(err)
		}
		fmt.Printf("✅ rolled back %d migration(s)\n", *steps)

	case "version":
		version, dirty, err := postgres.MigrationVersion(dsn)
		if err != nil {
			fail(err)
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
	os.Exit(1)
}
