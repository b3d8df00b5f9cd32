package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tiktip/pkg/config"
	"tiktip/pkg/database"
	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/repo/persistent"
	"tiktip/services/ledger/internal/usecase"
)

// reconcile compares each creator's stored balances with the sums of their
// ledger rows. Exit status 1 means drift was found and left unrepaired.
func main() {
	var (
		creatorID = flag.String("creator", "", "check a single creator (default: all)")
		repair    = flag.Bool("repair", false, "rewrite drifted balances from the ledger rows")
		timeout   = flag.Duration("timeout", 10*time.Minute, "overall deadline")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reconciler := usecase.NewReconcileUseCase(persistent.NewLedgerRepository(db), log)

	var reports []*usecase.ReconcileReport
	switch {
	case *creatorID != "" && *repair:
		report, err := reconciler.Repair(ctx, *creatorID)
		if err != nil {
			log.Fatalf("Failed to repair creator %s: %v", *creatorID, err)
		}
		reports = append(reports, report)
	case *creatorID != "":
		report, err := reconciler.Check(ctx, *creatorID)
		if err != nil {
			log.Fatalf("Failed to check creator %s: %v", *creatorID, err)
		}
		reports = append(reports, report)
	default:
		reports, err = reconciler.CheckAll(ctx, *repair)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
	}

	unresolved := 0
	for _, r := range reports {
		if !r.Drift() {
			continue
		}
		fmt.Printf("%s stored=(%s, %s) computed=(%s, %s) repaired=%t\n",
			r.CreatorID,
			r.Stored.TotalEarnings.StringFixed(2), r.Stored.AvailableBalance.StringFixed(2),
			r.Computed.TotalEarnings.StringFixed(2), r.Computed.AvailableBalance.StringFixed(2),
			r.Repaired)
		if !r.Repaired {
			unresolved++
		}
	}

	log.Info("Checked %d creators, %d with unresolved drift", len(reports), unresolved)
	if unresolved > 0 {
		os.Exit(1)
	}
}
