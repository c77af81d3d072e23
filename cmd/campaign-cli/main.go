// Campaign CLI runs a campaign over local files.
//
// Usage:
//
//	go run ./cmd/campaign-cli -request request.json -out output base1.csv base2.csv
//	go run ./cmd/campaign-cli -simulation -request sim.json simulations.csv
//
// The restriction database is used when DB_HOST and DB_NAME are set and
// reachable; otherwise the run continues without restrictions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/services/campaign"
	"campaign-filter-engine/internal/services/export"
	"campaign-filter-engine/internal/utils"
)

func main() {
	requestPath := flag.String("request", "", "path to the request JSON")
	outputDir := flag.String("out", "", "output directory (default OUTPUT_DIR)")
	simulation := flag.Bool("simulation", false, "run the simulation path")
	flag.Parse()

	if *requestPath == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: campaign-cli -request request.json [-out dir] [-simulation] file.csv...")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	campaigns, db, err := campaign.Setup(context.Background(), cfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	rawRequest, err := os.ReadFile(*requestPath)
	if err != nil {
		fmt.Printf("❌ Failed to read request: %v\n", err)
		os.Exit(1)
	}

	inputs := make([]utils.NamedContent, 0, flag.NArg())
	for _, path := range flag.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("❌ Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		inputs = append(inputs, utils.NamedContent{Name: filepath.Base(path), Content: content})
	}

	result, err := run(context.Background(), campaigns, *simulation, rawRequest, inputs)
	if err != nil {
		utils.GetLogger().Error("Campaign run failed", zap.Error(err))
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	paths, err := export.WriteFiles(*outputDir, result.Files)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Job %s: %d of %d customers selected in %s\n", result.JobID, result.RowsOut, result.RowsIn, result.ProcessingTime)
	for i, p := range paths {
		fmt.Printf("   📄 %s (%d rows)\n", p, result.Files[i].Rows)
	}
	for _, w := range result.Warnings {
		fmt.Printf("   ⚠️  %s\n", w)
	}
}

func run(ctx context.Context, campaigns *campaign.Service, simulation bool, rawRequest []byte, inputs []utils.NamedContent) (*campaign.Result, error) {
	if simulation {
		var req campaign.SimulationRequest
		if err := json.Unmarshal(rawRequest, &req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		return campaigns.RunSimulations(ctx, inputs, req)
	}

	var req campaign.CampaignRequest
	if err := json.Unmarshal(rawRequest, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return campaigns.Run(ctx, inputs, req)
}
