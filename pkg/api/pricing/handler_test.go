package pricing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentic_ipo/pkg/core/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStructuredOnly() {
	orch = pipeline.New(nil)
	repo = nil
}

const priceBody = `{
	"company": "Brightline Logistics",
	"classification": "MATURE",
	"holders": [{"name": "Founder", "type": "FOUNDER", "pre_ipo_shares": 100}],
	"projections": {"current_revenue": 500, "growth_path": [0.08, 0.07, 0.06, 0.05], "current_margin": 0.12, "target_margin": 0.18},
	"balance": {"cash": 50, "debt": 100},
	"discount_rate": 0.10,
	"terminal_growth": 0.025,
	"tax_rate": 0.25,
	"offer": {"primary_shares": 10, "price_range_low": 14, "price_range_high": 16}
}`

func TestHandlePrice(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("POST", "/api/ipo/price", strings.NewReader(priceBody))
	rec := httptest.NewRecorder()
	HandlePrice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var res pipeline.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Pricing)
	assert.Nil(t, res.Pricing.Err)
	assert.NotEmpty(t, res.RunID)
	assert.GreaterOrEqual(t, res.Pricing.RecommendedPrice, 14.0)
	assert.LessOrEqual(t, res.Pricing.RecommendedPrice, 16.0)
	assert.Contains(t, res.Report, "Brightline Logistics")
}

func TestHandlePriceInvalidAssumptions(t *testing.T) {
	setupStructuredOnly()

	body := `{"company": "Hollow Co", "offer": {"primary_shares": 10, "price_range_low": 14, "price_range_high": 16}}`
	req := httptest.NewRequest("POST", "/api/ipo/price", strings.NewReader(body))
	rec := httptest.NewRecorder()
	HandlePrice(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var res pipeline.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Pricing)
	require.NotNil(t, res.Pricing.Err)
	assert.Equal(t, "INVALID_ASSUMPTIONS", res.Pricing.Err.Code)
}

func TestHandlePriceBadJSON(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("POST", "/api/ipo/price", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	HandlePrice(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePriceMethodGuard(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("GET", "/api/ipo/price", nil)
	rec := httptest.NewRecorder()
	HandlePrice(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest("OPTIONS", "/api/ipo/price", nil)
	rec = httptest.NewRecorder()
	HandlePrice(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleAnalyzeRequiresText(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("POST", "/api/ipo/analyze", strings.NewReader(`{"prospectus": ""}`))
	rec := httptest.NewRecorder()
	HandleAnalyze(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAnalysisWithoutStore(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("GET", "/api/ipo/analysis?company=brightline", nil)
	rec := httptest.NewRecorder()
	HandleGetAnalysis(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleListAnalysesWithoutStore(t *testing.T) {
	setupStructuredOnly()

	req := httptest.NewRequest("GET", "/api/ipo/analyses", nil)
	rec := httptest.NewRecorder()
	HandleListAnalyses(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest("POST", "/api/ipo/analyses", nil)
	rec = httptest.NewRecorder()
	HandleListAnalyses(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMaybeSanitize(t *testing.T) {
	text, err := maybeSanitize("<html><body><p>We are offering 10.0 million shares.</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "We are offering 10.0 million shares.", text)

	text, err = maybeSanitize("plain prospectus text")
	require.NoError(t, err)
	assert.Equal(t, "plain prospectus text", text)
}
