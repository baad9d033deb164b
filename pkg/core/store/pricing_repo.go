package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"agentic_ipo/pkg/core/deal"
	"agentic_ipo/pkg/core/pricing"

	"github.com/jackc/pgx/v5"
)

// PricingRepo stores one row per company: the input assumptions, the
// full pricing result and the rendered report, upserted by slug.
type PricingRepo struct{}

// NewPricingRepo creates a repository instance.
func NewPricingRepo() *PricingRepo {
	return &PricingRepo{}
}

// Record is what Save persists and Load returns.
type Record struct {
	Deal    *deal.DealAssumptions `json:"deal"`
	Result  *pricing.Result       `json:"result"`
	Report  string                `json:"report,omitempty"`
	RunID   string                `json:"run_id,omitempty"`
	SavedAt time.Time             `json:"saved_at"`
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalizes a company name into the primary key form, e.g.
// "Meridian Software, Inc." -> "meridian-software-inc".
func Slug(company string) string {
	s := strings.ToLower(strings.TrimSpace(company))
	s = slugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Save upserts the analysis for the record's company.
//
// Schema assumption (managed outside this package):
//
//	CREATE TABLE IF NOT EXISTS ipo_pricing_analysis (
//	  company_slug TEXT PRIMARY KEY,
//	  company TEXT,
//	  recommended_price DOUBLE PRECISION,
//	  analysis_json JSONB,
//	  updated_at TIMESTAMPTZ
//	);
func (r *PricingRepo) Save(ctx context.Context, rec *Record) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if rec.Result == nil {
		return fmt.Errorf("record has no pricing result")
	}

	rec.SavedAt = time.Now()
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO ipo_pricing_analysis (company_slug, company, recommended_price, analysis_json, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_slug)
		DO UPDATE SET
			company = EXCLUDED.company,
			recommended_price = EXCLUDED.recommended_price,
			analysis_json = EXCLUDED.analysis_json,
			updated_at = EXCLUDED.updated_at;
	`

	_, err = pool.Exec(ctx, query,
		Slug(rec.Result.Company), rec.Result.Company,
		rec.Result.RecommendedPrice, jsonData, rec.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// Load retrieves the stored analysis for a company name or slug.
func (r *PricingRepo) Load(ctx context.Context, company string) (*Record, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT analysis_json FROM ipo_pricing_analysis WHERE company_slug = $1`

	var jsonData []byte
	err := pool.QueryRow(ctx, query, Slug(company)).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no analysis found for %s", company)
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(jsonData, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	return &rec, nil
}

// List returns the slugs of all stored analyses, newest first.
func (r *PricingRepo) List(ctx context.Context) ([]string, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT company_slug FROM ipo_pricing_analysis ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}
