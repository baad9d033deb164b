package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"agentic_ipo/pkg/api/pricing"
	"agentic_ipo/pkg/core/agent"
	"agentic_ipo/pkg/core/store"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var agentMgr *agent.Manager

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize manager from config
	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr = agent.NewManager(agentCfg)

	// Storage is optional: without DATABASE_URL the API still prices,
	// it just doesn't persist or serve stored analyses.
	withStore := false
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] Database init failed: %v\n", err)
			fmt.Println("  Continuing without persistence")
		} else {
			withStore = true
			defer store.Close()
		}
	}

	pricing.InitHandler(agentMgr, withStore)
	http.HandleFunc("/api/ipo/analyze", pricing.HandleAnalyze)
	http.HandleFunc("/api/ipo/price", pricing.HandlePrice)
	http.HandleFunc("/api/ipo/analysis", pricing.HandleGetAnalysis)
	http.HandleFunc("/api/ipo/analyses", pricing.HandleListAnalyses)

	fmt.Println("API server starting on :8080...")
	fmt.Println("  - POST /api/ipo/analyze   (free-text prospectus)")
	fmt.Println("  - POST /api/ipo/price     (structured assumptions)")
	fmt.Println("  - GET  /api/ipo/analysis  (one stored result)")
	fmt.Println("  - GET  /api/ipo/analyses  (stored result listing)")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
