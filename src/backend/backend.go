// File: src/backend/backend.go

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suidao-labs/suidao-backend/src/backend/config"
	"github.com/suidao-labs/suidao-backend/src/backend/data"
	"github.com/suidao-labs/suidao-backend/src/backend/monitor"
	"github.com/suidao-labs/suidao-backend/src/backend/sui"
	"github.com/suidao-labs/suidao-backend/src/backend/webserver"
)

func main() {
	cfg := config.Load()

	// Database first; bounded retries cover a MySQL that is still booting.
	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	store := data.NewStore(db)

	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())

	suiClient, err := sui.NewClient(ctx, cfg.SuiRPCURL, cfg.PackageID, cfg.DaoModule, cfg.ProposalModule)
	if err != nil {
		log.Fatalf("sui client: %v", err)
	}
	defer suiClient.Close()

	// Background chain monitor for the lifetime of the process.
	mon := monitor.New(suiClient, store, rdb, time.Duration(cfg.PollInterval)*time.Second)
	go mon.Run(ctx)

	router := webserver.New(store, rdb)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("SuiDao backend listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
