// Command reconcile is the out-of-band repair job for partially
// recorded attributions. The event handler never retries persistence
// failures itself, so this job finds attributions missing their usage
// ledger row and completes them. Safe to run repeatedly: every write is
// guarded against duplication.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"invitetrack/internal/config"
	"invitetrack/internal/database"
	"invitetrack/internal/repository"
)

func main() {
	repairCmd := flag.NewFlagSet("repair", flag.ExitOnError)
	repairDryRun := repairCmd.Bool("dry-run", false, "Report what would be repaired without writing")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	attributionRepo := repository.NewAttributionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	switch os.Args[1] {
	case "repair":
		repairCmd.Parse(os.Args[2:])
		handleRepair(attributionRepo, usageRepo, *repairDryRun)

	case "list":
		listCmd.Parse(os.Args[2:])
		handleList(attributionRepo)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleRepair(attributionRepo *repository.AttributionRepository, usageRepo *repository.UsageRepository, dryRun bool) {
	ctx := context.Background()

	missing, err := attributionRepo.ListMissingUsage(ctx)
	if err != nil {
		log.Fatalf("Failed to find incomplete recordings: %v", err)
	}

	if len(missing) == 0 {
		log.Println("All attributions have usage ledger rows, nothing to repair")
		return
	}

	log.Printf("Found %d attributions missing usage ledger rows", len(missing))

	repaired := 0
	for _, a := range missing {
		if dryRun {
			log.Printf("Would create usage row for inviter %s, member %s", a.InviterID, a.MemberID)
			continue
		}
		if _, err := usageRepo.Create(ctx, a.InviterID, a.MemberID); err != nil {
			log.Printf("Failed to repair attribution %d: %v", a.ID, err)
			continue
		}
		repaired++
	}

	if !dryRun {
		log.Printf("Repair complete: %d of %d rows created", repaired, len(missing))
	}
}

func handleList(attributionRepo *repository.AttributionRepository) {
	ctx := context.Background()

	missing, err := attributionRepo.ListMissingUsage(ctx)
	if err != nil {
		log.Fatalf("Failed to find incomplete recordings: %v", err)
	}

	for _, a := range missing {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", a.ID, a.InviterID, a.MemberID, a.Status, a.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	log.Printf("%d incomplete recordings", len(missing))
}

func printUsage() {
	fmt.Println("Usage: reconcile <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  repair    Create missing usage ledger rows (-dry-run to preview)")
	fmt.Println("  list      List attributions with incomplete recordings")
}
