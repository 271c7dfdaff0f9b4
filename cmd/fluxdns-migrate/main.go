package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cuemby/fluxdns/pkg/catalog"
	"github.com/cuemby/fluxdns/pkg/storage"
)

var (
	fromPath   = flag.String("from", "apps.txt", "Newline-delimited tracked application file to import")
	dbPath     = flag.String("db", "apps.db", "bbolt database to import into")
	dryRun     = flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	backupPath = flag.String("backup", "", "Path to backup the database before migration (default: <db>.backup)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("fluxdns Store Migration Tool - file → bolt")
	log.Println("==========================================")

	if _, err := os.Stat(*fromPath); os.IsNotExist(err) {
		log.Fatalf("Application file not found at %s", *fromPath)
	}

	log.Printf("Source: %s", *fromPath)
	log.Printf("Database: %s", *dbPath)
	log.Printf("Dry run: %v", *dryRun)

	// Back up an existing database unless in dry-run mode
	if _, err := os.Stat(*dbPath); err == nil && !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = *dbPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(*dbPath, backupFile); err != nil {
			log.Fatalf("Failed to create backup: %v", err)
		}
		log.Println("✓ Backup created successfully")
	}

	src, err := storage.NewFileStore(*fromPath)
	if err != nil {
		log.Fatalf("Failed to open application file: %v", err)
	}
	names, err := src.Load()
	if err != nil {
		log.Fatalf("Failed to read application file: %v", err)
	}

	if err := migrate(names, *dbPath, *dryRun); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *dryRun {
		log.Println("\nDry run completed. No changes made.")
		log.Println("Run without --dry-run to perform the migration.")
	} else {
		log.Println("\n✓ Migration completed successfully!")
		log.Printf("The source file %s has been left in place.", *fromPath)
		log.Println("Switch to the new store with:")
		log.Printf("  store:\n    backend: bolt\n    path: %s", *dbPath)
	}
}

// migrate merges names into the bolt store at path, keeping the store's
// existing order and appending names it does not know yet
func migrate(names []string, path string, dryRun bool) error {
	if dryRun {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("\n[DRY RUN] Would create %s with %d application(s):", path, len(names))
			for _, name := range names {
				log.Printf("  + %s", name)
			}
			return nil
		}
	}

	db, err := storage.NewBoltStore(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	existing, err := db.Load()
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	log.Printf("Found %d application(s) in file, %d in database", len(names), len(existing))

	merged, added, _ := catalog.Sync(existing, append(existing, names...))

	if dryRun {
		log.Println("\n[DRY RUN] Would perform the following operations:")
		for _, name := range added {
			log.Printf("  + %s", name)
		}
		log.Printf("Database would hold %d application(s)", len(merged))
		return nil
	}

	if len(added) == 0 {
		log.Println("✓ Database already holds every application")
		return nil
	}

	if err := db.Save(merged); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	log.Printf("✓ Imported %d new application(s), %d total", len(added), len(merged))
	return nil
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0600)
}
