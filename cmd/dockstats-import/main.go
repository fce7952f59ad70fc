// Command dockstats-import loads a directory of scraped JSON documents into
// the SQLite snapshot store and, optionally, a PostgreSQL snapshot table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dockstats/dockstats/internal/feed/jsonfeed"
	"github.com/dockstats/dockstats/internal/feed/pgfeed"
	"github.com/dockstats/dockstats/internal/feed/sqlitefeed"
	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/pkg/config"
)

func main() {
	var (
		cfgFile = flag.String("config", "", "Optional YAML configuration; supplies timezone and filename layout")
		srcDir  = flag.String("src", "", "Directory of scraped JSON documents (required)")
		dbFile  = flag.String("db", "", "Path to the SQLite snapshot store")
		pgConn  = flag.String("pg", "", "PostgreSQL connection string of a station_snapshots database")
		layout  = flag.String("layout", "", "Time layout of scrape file names (default "+jsonfeed.DefaultFilenameLayout+")")
		dryRun  = flag.Bool("dry-run", false, "Parse the scrapes without writing anything")
		debug   = flag.Bool("debug", false, "Turn on debugging output")

		migrateStatus = flag.Bool("migrate-status", false, "Show the schema version of the -db store and exit")
		migrateTo     = flag.Int("migrate-to", -1, "Move the -db store schema to this version and exit")
	)
	flag.Parse()

	if *migrateStatus || *migrateTo >= 0 {
		if *dbFile == "" {
			fmt.Fprintf(os.Stderr, "Usage: %s -db <snapshots.db> [-migrate-status] [-migrate-to <version>]\n", os.Args[0])
			os.Exit(1)
		}
		if err := log.Init(*debug, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		if err := runMigrate(context.Background(), *dbFile, *migrateTo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			log.Sync()
			os.Exit(1)
		}
		return
	}

	if *srcDir == "" || (*dbFile == "" && *pgConn == "" && !*dryRun) {
		fmt.Fprintf(os.Stderr, "Usage: %s -src <dir> [-db <snapshots.db>] [-pg <connection string>]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	loc := time.UTC
	if *cfgFile != "" {
		cfg, err := config.NewYAMLProvider(*cfgFile).LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if loc, err = cfg.Location(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *layout == "" && cfg.Feed.JSON != nil {
			*layout = cfg.Feed.JSON.FilenameLayout
		}
	}

	if err := run(context.Background(), *srcDir, *layout, loc, *dbFile, *pgConn, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, srcDir, layout string, loc *time.Location, dbFile, pgConn string, dryRun bool) error {
	fmt.Printf("Importing scrapes...\n")
	fmt.Printf("  Source: %s\n", srcDir)

	feed := jsonfeed.New(srcDir, layout, loc, log.Named("jsonfeed"))
	snaps, stations, err := feed.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("error reading scrapes: %w", err)
	}
	fmt.Printf("  Parsed %d snapshots of %d stations\n", len(snaps), len(stations))

	if dryRun {
		fmt.Println("DRY RUN complete - nothing written")
		return nil
	}

	if dbFile != "" {
		store, err := sqlitefeed.Open(ctx, dbFile, loc)
		if err != nil {
			return err
		}
		defer store.Close()

		added, err := store.SaveSnapshots(ctx, snaps)
		if err != nil {
			return err
		}
		if err := store.SaveStations(ctx, stations); err != nil {
			return err
		}
		fmt.Printf("  SQLite %s: %d new snapshots (%d already present)\n", dbFile, added, int64(len(snaps))-added)
	}

	if pgConn != "" {
		pf, err := pgfeed.Open(ctx, pgConn, loc)
		if err != nil {
			return err
		}
		defer pf.Close()

		added, err := pf.SaveSnapshots(ctx, snaps)
		if err != nil {
			return err
		}
		if err := pf.SaveStations(ctx, stations); err != nil {
			return err
		}
		fmt.Printf("  PostgreSQL: %d new snapshots (%d already present)\n", added, int64(len(snaps))-added)
	}

	fmt.Println("Import complete")
	return nil
}

// runMigrate moves the store schema to version when version is not
// negative, then prints the schema status.
func runMigrate(ctx context.Context, dbFile string, version int) error {
	schema, err := sqlitefeed.OpenSchema(ctx, dbFile)
	if err != nil {
		return err
	}
	defer schema.Close()

	if version >= 0 {
		if err := schema.MigrateTo(ctx, version); err != nil {
			return fmt.Errorf("error migrating %s: %w", dbFile, err)
		}
	}

	current, pending, err := schema.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Schema of %s: version %d\n", dbFile, current)
	for _, m := range pending {
		fmt.Printf("  pending: %03d %s\n", m.Version, m.Name)
	}
	return nil
}
