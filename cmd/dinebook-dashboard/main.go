package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"dinebook/go-client/internal/aggregate"
	"dinebook/go-client/internal/bootstrap/ledgerconfig"
	"dinebook/go-client/internal/ledger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	user := flag.String("user", "", "User identity (base58) to aggregate")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall request timeout")
	flag.Parse()
	if *showVersion {
		fmt.Printf("dinebook-dashboard version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}
	if *user == "" {
		log.Fatal("dinebook-dashboard: -user is required")
	}

	cfg := ledgerconfig.LoadFromPath(*configPath)
	if cfg.ProgramAddress == "" {
		log.Fatal("dinebook-dashboard: program address is not configured")
	}
	programID, err := ledger.AddressFromBase58(cfg.ProgramAddress)
	if err != nil {
		log.Fatalf("dinebook-dashboard: invalid program address: %v", err)
	}
	userAddr, err := ledger.AddressFromBase58(*user)
	if err != nil {
		log.Fatalf("dinebook-dashboard: invalid user identity: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := ledger.NewRPCClient(cfg.Ledger, prometheus.DefaultRegisterer)
	view := aggregate.NewAggregator(client, programID).Dashboard(ctx, userAddr)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		log.Fatalf("dinebook-dashboard: encode view: %v", err)
	}
}
