// Package pricing exposes the analysis pipeline over HTTP. Two entry
// points: free-text prospectus analysis (LLM extraction first) and
// structured pricing (assumptions already in hand). A third handler
// serves stored results.
package pricing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agentic_ipo/pkg/core/agent"
	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/extract"
	"agentic_ipo/pkg/core/ingest"
	"agentic_ipo/pkg/core/pipeline"
	"agentic_ipo/pkg/core/store"
	"agentic_ipo/pkg/core/trace"
)

var orch *pipeline.Orchestrator
var repo *store.PricingRepo

// InitHandler wires the shared orchestrator. withStore controls the
// persistence stage; the API works without a database.
func InitHandler(mgr *agent.Manager, withStore bool) {
	provider := mgr.GetProvider(agent.RoleExtractor)
	orch = pipeline.New(extract.NewExtractor(provider, mgr.Options(agent.RoleExtractor)))
	orch.SetTracer(trace.Printf{})

	if withStore {
		repo = store.NewPricingRepo()
		orch.SetRepository(repo)
	}
}

// AnalyzeRequest carries a raw prospectus. HTML is sanitized before
// extraction.
type AnalyzeRequest struct {
	Prospectus string `json:"prospectus"`
}

// HandleAnalyze runs the full pipeline from free text.
// POST /api/ipo/analyze
func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prospectus == "" {
		http.Error(w, "prospectus text required", http.StatusBadRequest)
		return
	}

	fmt.Printf("[PRICING] Analyze request: %d characters of prospectus text\n", len(req.Prospectus))

	text := req.Prospectus
	if sanitized, err := maybeSanitize(text); err == nil {
		text = sanitized
	}

	res, err := orch.Run(r.Context(), &ingest.StringSource{Content: text})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if res.Extraction != nil {
		fmt.Printf("[PRICING] Extraction failed at stage %s\n", res.Extraction.Stage)
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandlePrice prices already-structured assumptions, skipping the LLM.
// POST /api/ipo/price
func HandlePrice(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}

	var d deal.DealAssumptions
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fmt.Printf("[PRICING] Price request: %s\n", d.Company)

	res, err := orch.RunDeal(r.Context(), &d)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if res.Pricing != nil && res.Pricing.Err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleGetAnalysis serves a stored analysis by company name or slug.
// GET /api/ipo/analysis?company=meridian-software
func HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	cors(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if repo == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}

	company := r.URL.Query().Get("company")
	if company == "" {
		http.Error(w, "company parameter required", http.StatusBadRequest)
		return
	}

	rec, err := repo.Load(r.Context(), company)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HandleListAnalyses serves the slugs of all stored analyses, newest
// first.
// GET /api/ipo/analyses
func HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	cors(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if repo == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}

	slugs, err := repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if slugs == nil {
		slugs = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": slugs})
}

// maybeSanitize strips markup when the submitted text is an HTML
// document, otherwise returns it unchanged.
func maybeSanitize(text string) (string, error) {
	head := strings.ToLower(text)
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") || strings.Contains(head, "<body") {
		return ingest.NewSanitizer().Text(text)
	}
	return text, nil
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	cors(w)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("[PRICING] Failed to encode response: %v\n", err)
	}
}
