package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"mangaledger/internal/catalog"
	"mangaledger/pkg/database"
	"mangaledger/pkg/utils"
)

func main() {
	schedule := flag.String("schedule", "", "cron schedule (e.g. \"0 3 * * *\"); empty runs once and exits")
	timeout := flag.Duration("timeout", 5*time.Minute, "per-run timeout")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	importer := catalog.NewImporter(
		catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogSeed, cfg.CatalogTargetID), db)

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		n, err := importer.Synchronize(ctx)
		if err != nil {
			log.Printf("[sync] failed: %v", err)
			return
		}
		log.Printf("[sync] done, %d titles", n)
	}

	if *schedule == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		log.Fatalf("bad schedule %q: %v", *schedule, err)
	}
	c.Start()
	log.Printf("[sync] scheduled with %q", *schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	<-c.Stop().Done()
}
