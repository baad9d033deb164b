// Package pipeline wires one end-to-end analysis run: prospectus text
// in, stored report out. Every stage past extraction is deterministic;
// the orchestrator mainly sequences, traces and persists.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/extract"
	"agentic_ipo/pkg/core/ingest"
	"agentic_ipo/pkg/core/pricing"
	"agentic_ipo/pkg/core/report"
	"agentic_ipo/pkg/core/store"
	"agentic_ipo/pkg/core/trace"

	"github.com/google/uuid"
)

// Repository persists finished runs. *store.PricingRepo satisfies it;
// tests inject a stub.
type Repository interface {
	Save(ctx context.Context, rec *store.Record) error
}

// Commentator writes the optional report commentary.
// *narrative.Writer satisfies it.
type Commentator interface {
	Commentary(ctx context.Context, d *deal.DealAssumptions, res *pricing.Result) (string, error)
}

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID      string                `json:"run_id"`
	Deal       *deal.DealAssumptions `json:"deal,omitempty"`
	Pricing    *pricing.Result       `json:"pricing,omitempty"`
	Report     string                `json:"report,omitempty"`
	Extraction *extract.Failure      `json:"extraction_failure,omitempty"`
	// RawExtraction is the model JSON kept for auditing failures.
	RawExtraction string        `json:"raw_extraction,omitempty"`
	Elapsed       time.Duration `json:"-"`
}

// Orchestrator sequences ingest, extraction, pricing, rendering and
// storage. Repo and narrator are optional; nil skips the stage.
type Orchestrator struct {
	extractor *extract.Extractor
	engine    *pricing.Engine
	repo      Repository
	narrator  Commentator
	tracer    trace.Tracer
}

// New creates an orchestrator. extractor may be nil when only RunDeal
// (pre-structured input) is used.
func New(extractor *extract.Extractor) *Orchestrator {
	engine := pricing.NewEngine()
	return &Orchestrator{
		extractor: extractor,
		engine:    engine,
		tracer:    trace.Nop{},
	}
}

// SetRepository enables the storage stage.
func (o *Orchestrator) SetRepository(repo Repository) {
	o.repo = repo
}

// SetNarrator enables the commentary stage.
func (o *Orchestrator) SetNarrator(n Commentator) {
	o.narrator = n
}

// SetTracer installs a tracer on the orchestrator and its engine.
func (o *Orchestrator) SetTracer(t trace.Tracer) {
	o.tracer = t
	o.engine.SetTracer(t)
}

// Run executes the full pipeline from raw prospectus text.
func (o *Orchestrator) Run(ctx context.Context, source ingest.TextSource) (*RunResult, error) {
	if o.extractor == nil {
		return nil, fmt.Errorf("orchestrator has no extractor configured")
	}

	res := &RunResult{RunID: uuid.New().String()}
	start := time.Now()
	o.tracer.Trace("PIPELINE", "run %s starting", res.RunID)

	text, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("ingest produced empty prospectus text")
	}
	o.tracer.Trace("INGEST", "loaded %d characters of prospectus text", len(text))

	outcome := o.extractor.Extract(ctx, text)
	if !outcome.OK() {
		// Extraction failures are a reportable result, not an error:
		// the caller gets the stage and the raw JSON for auditing.
		res.Extraction = outcome.Failure
		res.RawExtraction = outcome.RawJSON
		res.Elapsed = time.Since(start)
		o.tracer.Trace("EXTRACT", "failed at stage %s: %s", outcome.Failure.Stage, outcome.Failure.Detail)
		return res, nil
	}
	res.Deal = outcome.Deal
	o.tracer.Trace("EXTRACT", "extracted assumptions for %s", outcome.Deal.Company)

	return o.finish(ctx, res, start)
}

// RunDeal executes pricing onward for already-structured assumptions.
func (o *Orchestrator) RunDeal(ctx context.Context, d *deal.DealAssumptions) (*RunResult, error) {
	res := &RunResult{RunID: uuid.New().String(), Deal: d}
	start := time.Now()
	o.tracer.Trace("PIPELINE", "run %s starting (structured input)", res.RunID)
	return o.finish(ctx, res, start)
}

func (o *Orchestrator) finish(ctx context.Context, res *RunResult, start time.Time) (*RunResult, error) {
	res.Pricing = o.engine.Price(res.Deal)
	if res.Pricing.Err != nil {
		o.tracer.Trace("PRICE", "refused: %s", res.Pricing.Err.Message)
	} else {
		o.tracer.Trace("PRICE", "recommended $%.2f for %s", res.Pricing.RecommendedPrice, res.Pricing.Company)
	}

	var commentary string
	if o.narrator != nil && res.Pricing.Err == nil {
		text, err := o.narrator.Commentary(ctx, res.Deal, res.Pricing)
		if err != nil {
			// Commentary is decoration; a dead LLM must not sink the run.
			o.tracer.Trace("NARRATIVE", "skipped: %v", err)
		} else {
			commentary = text
		}
	}

	res.Report = report.Render(res.Deal, res.Pricing, commentary)
	o.tracer.Trace("REPORT", "rendered %d bytes", len(res.Report))

	if o.repo != nil && res.Pricing.Err == nil {
		rec := &store.Record{
			Deal:   res.Deal,
			Result: res.Pricing,
			Report: res.Report,
			RunID:  res.RunID,
		}
		if err := o.repo.Save(ctx, rec); err != nil {
			return res, fmt.Errorf("storage failed: %w", err)
		}
		o.tracer.Trace("STORE", "saved analysis for %s", res.Pricing.Company)
	}

	res.Elapsed = time.Since(start)
	o.tracer.Trace("PIPELINE", "run %s done in %s", res.RunID, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
