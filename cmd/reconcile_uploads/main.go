package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/gma-backend/internal/app"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/services"
)

func main() {
	var fix bool
	var verbose bool
	var grace time.Duration
	flag.BoolVar(&fix, "fix", false, "mark rows with missing objects as error and delete objects with no row")
	flag.BoolVar(&verbose, "v", false, "print every mismatch")
	flag.DurationVar(&grace, "grace", services.DefaultReconcileGrace, "ignore rows and objects newer than this")
	flag.Parse()

	ctx := context.Background()
	a, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	svc := services.NewReconcileService(a.Log, a.Repos.VideoUpload, a.Store, grace)
	dbc := dbctx.Context{Ctx: ctx}

	report, err := svc.Scan(dbc)
	if err != nil {
		fmt.Printf("scan failed: %v\n", err)
		a.Close()
		os.Exit(1)
	}

	fmt.Printf("backend=%s rows=%d objects=%d missing_objects=%d orphan_objects=%d skipped_recent=%d\n",
		a.Store.Backend(), report.Rows, report.Objects, len(report.MissingObjects), len(report.OrphanObjects), report.Skipped)
	if verbose {
		for _, row := range report.MissingObjects {
			fmt.Printf("missing object: upload=%s stored=%s\n", row.ID, row.StoredFilename)
		}
		for _, key := range report.OrphanObjects {
			fmt.Printf("orphan object: %s\n", key)
		}
	}

	if report.Clean() {
		fmt.Println("storage and database agree")
		return
	}
	if !fix {
		fmt.Println("re-run with -fix to repair")
		a.Close()
		os.Exit(2)
	}
	if err := svc.Fix(dbc, report); err != nil {
		fmt.Printf("fix failed: %v\n", err)
		a.Close()
		os.Exit(1)
	}
	fmt.Println("repaired")
}
