// Package pricing tracks token usage and the dollar cost of a run against a
// per-model pricing table.
package pricing

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

//go:embed model_pricing.json
var embeddedPricing []byte

// fetchTimeout bounds the remote pricing lookup; the embedded table is the
// fallback, so a slow endpoint must not stall startup.
const fetchTimeout = 2 * time.Second

// ModelPrice is the cost per one million tokens, in USD
type ModelPrice struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// Table maps model names to their prices
type Table map[string]ModelPrice

// Load returns the pricing table, preferring a freshly published one from
// url and falling back to the table embedded at build time. An empty table
// is returned only if both fail; costs are then reported as zero.
func Load(ctx context.Context, url string) Table {
	if url != "" {
		if table, err := fetch(ctx, url); err == nil {
			return table
		}
	}

	var table Table
	if err := json.Unmarshal(embeddedPricing, &table); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load the pricing table: %v\n", err)
		return Table{}
	}
	return table
}

// Merge overlays other onto the table, adding or updating model prices
func (t Table) Merge(other Table) {
	for model, price := range other {
		t[model] = price
	}
}

func fetch(ctx context.Context, url string) (Table, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pricing: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pricing: %w", err)
	}

	var table Table
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("parse pricing: %w", err)
	}
	return table, nil
}

// Tracker accumulates token usage for one model across a run
type Tracker struct {
	mu               sync.Mutex
	prices           Table
	model            string
	promptTokens     int
	completionTokens int
}

// NewTracker creates a tracker for the given model. A model missing from the
// table is not an error; its cost is reported as zero.
func NewTracker(prices Table, model string) *Tracker {
	if _, ok := prices[model]; !ok {
		fmt.Fprintf(os.Stderr, "Warning: no pricing available for %s; cost will be reported as 0.\n", model)
	}
	return &Tracker{prices: prices, model: model}
}

// Add records token usage from one API call
func (t *Tracker) Add(promptTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.promptTokens += promptTokens
	t.completionTokens += completionTokens
}

// Tokens returns the accumulated prompt and completion token counts
func (t *Tracker) Tokens() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.promptTokens, t.completionTokens
}

// Cost returns the accumulated input and output cost in USD
func (t *Tracker) Cost() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	price := t.prices[t.model]
	input := price.Input * float64(t.promptTokens) / 1e6
	output := price.Output * float64(t.completionTokens) / 1e6
	return input, output
}

// Report formats the running total plus this-row token counts the way the
// analysis log reports them after each row.
func (t *Tracker) Report(rowPrompt, rowCompletion int) string {
	input, output := t.Cost()
	return fmt.Sprintf("Total cost so far: $%.4f + $%.4f = $%.4f    This row tokens: %d + %d",
		input, output, input+output, rowPrompt, rowCompletion)
}
