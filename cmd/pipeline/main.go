// Command pipeline runs one analysis from the command line: a
// prospectus file in, the Markdown report on stdout.
//
// Usage:
//
//	pipeline [-json deal.json] [-out report.md] [-store] [-narrate] [prospectus.html]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"agentic_ipo/pkg/core/agent"
	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/extract"
	"agentic_ipo/pkg/core/ingest"
	"agentic_ipo/pkg/core/narrative"
	"agentic_ipo/pkg/core/pipeline"
	"agentic_ipo/pkg/core/store"
	"agentic_ipo/pkg/core/trace"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	dealPath := flag.String("json", "", "structured deal assumptions file (skips extraction)")
	outPath := flag.String("out", "", "write the report here instead of stdout")
	persist := flag.Bool("store", false, "save the analysis to Postgres (needs DATABASE_URL)")
	narrate := flag.Bool("narrate", false, "add LLM commentary to the report (needs GEMINI_API_KEY)")
	flag.Parse()

	ctx := context.Background()
	orch := buildOrchestrator(ctx, *dealPath == "", *persist, *narrate)

	var res *pipeline.RunResult
	var err error
	if *dealPath != "" {
		var d deal.DealAssumptions
		data, readErr := os.ReadFile(*dealPath)
		if readErr != nil {
			log.Fatalf("Failed to read deal file: %v", readErr)
		}
		if jsonErr := json.Unmarshal(data, &d); jsonErr != nil {
			log.Fatalf("Failed to parse deal file: %v", jsonErr)
		}
		res, err = orch.RunDeal(ctx, &d)
	} else {
		if flag.NArg() < 1 {
			log.Fatal("Usage: pipeline [-json deal.json] [flags] prospectus.html")
		}
		res, err = orch.Run(ctx, ingest.NewFileSource(flag.Arg(0)))
	}
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if res.Extraction != nil {
		fmt.Printf("Extraction failed at stage %s: %s\n", res.Extraction.Stage, res.Extraction.Detail)
		if res.RawExtraction != "" {
			fmt.Printf("Raw model output:\n%s\n", res.RawExtraction)
		}
		os.Exit(1)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(res.Report), 0644); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("Report written to %s\n", *outPath)
	} else {
		fmt.Println(res.Report)
	}

	if res.Pricing.Err != nil {
		os.Exit(1)
	}
}

func buildOrchestrator(ctx context.Context, needExtractor, persist, narrate bool) *pipeline.Orchestrator {
	var extractor *extract.Extractor
	if needExtractor {
		configData, _ := os.ReadFile("config/models.yaml")
		var agentCfg agent.Config
		yaml.Unmarshal(configData, &agentCfg)
		mgr := agent.NewManager(agentCfg)
		extractor = extract.NewExtractor(mgr.GetProvider(agent.RoleExtractor), mgr.Options(agent.RoleExtractor))
	}

	orch := pipeline.New(extractor)
	orch.SetTracer(trace.Printf{})

	if persist {
		if err := store.InitDB(ctx); err != nil {
			log.Fatalf("Database init failed: %v", err)
		}
		orch.SetRepository(store.NewPricingRepo())
	}

	if narrate {
		writer, err := narrative.NewWriter(ctx)
		if err != nil {
			log.Fatalf("Narrative writer init failed: %v", err)
		}
		orch.SetNarrator(writer)
	}

	return orch
}
