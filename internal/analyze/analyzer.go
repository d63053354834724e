// Package analyze runs an LLM prompt over every selected row of a tabular
// dataset and writes the structured answers back into output columns.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/scholarlabs/scholar/internal/llm"
	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/pricing"
	"github.com/scholarlabs/scholar/internal/table"
)

// Analyzer drives per-row analysis against an LLM provider
type Analyzer struct {
	provider llm.Provider
	cfg      model.AnalyzeConfig
	tracker  *pricing.Tracker
	verbose  bool
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(provider llm.Provider, cfg model.AnalyzeConfig, tracker *pricing.Tracker, verbose bool) *Analyzer {
	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		tracker:  tracker,
		verbose:  verbose,
	}
}

// Request describes one analysis run over a table
type Request struct {
	// Prompt is the user's task description, sent with every row
	Prompt string

	// InputFields are the columns included in the prompt. Empty means every
	// column except the output fields.
	InputFields []string

	// OutputFields are parsed from the response and written back
	OutputFields []string

	// Rows are the 0-based row indexes to process
	Rows []int

	// Examples are row indexes turned into few-shot example exchanges
	Examples []int

	// Model overrides the provider's default model when non-empty
	Model string

	// Overwrite processes rows even when an output field is already filled
	Overwrite bool

	// WriteRow persists one row's results after it is processed; nil skips
	// incremental persistence
	WriteRow func(row int) error
}

// Run analyzes the requested rows. Rows are processed in order; a row whose
// completion never parses is logged and skipped, not fatal. The table is
// modified in place and WriteRow is invoked after every processed row.
func (a *Analyzer) Run(ctx context.Context, tbl table.Table, req Request) error {
	if a.provider == nil {
		return fmt.Errorf("no LLM provider configured")
	}
	if len(req.OutputFields) == 0 {
		return fmt.Errorf("no output fields specified")
	}

	for _, field := range req.InputFields {
		if !hasColumn(tbl, field) {
			return fmt.Errorf("input field %q not found", field)
		}
	}
	if len(req.InputFields) == 0 {
		req.InputFields = defaultInputFields(tbl, req.OutputFields)
	}

	for _, field := range req.OutputFields {
		tbl.EnsureColumn(field)
	}

	examples, err := a.buildExamples(tbl, req)
	if err != nil {
		return err
	}

	for _, row := range req.Rows {
		if row < 0 || row >= tbl.Len() {
			a.warnf("Skipping row %d (no such row)", row+table.FirstDataRow)
			continue
		}

		if !req.Overwrite && anyFilled(tbl, row, req.OutputFields) {
			a.logf("Skipping row %d (already filled)", row+table.FirstDataRow)
			continue
		}

		a.logf("Processing row %d", row+table.FirstDataRow)

		prompt := BuildPrompt(req.Prompt, req.InputFields, req.OutputFields, cellGetter(tbl, row))

		rowPromptBefore, rowCompletionBefore := a.tracker.Tokens()

		response, err := a.getResponse(ctx, llm.CompletionRequest{
			System:    a.cfg.SystemPrompt,
			Examples:  examples,
			Prompt:    prompt,
			Model:     req.Model,
			N:         a.cfg.NumResults,
			TopP:      a.cfg.TopP,
			MaxTokens: a.cfg.MaxTokens,
			JSONOnly:  true,
		}, req.OutputFields)
		if err != nil {
			a.warnf("The model failed to generate a valid response for row %d: %v", row+table.FirstDataRow, err)
			continue
		}

		for _, field := range req.OutputFields {
			if err := tbl.Set(row, field, CellValue(response[field])); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}

		if req.WriteRow != nil {
			if err := req.WriteRow(row); err != nil {
				return fmt.Errorf("persist row %d: %w", row, err)
			}
		}

		rowPromptAfter, rowCompletionAfter := a.tracker.Tokens()
		a.logf("\t%s", a.tracker.Report(rowPromptAfter-rowPromptBefore, rowCompletionAfter-rowCompletionBefore))
	}

	return nil
}

// getResponse prompts the model until a completion parses as a JSON object
// containing every output field, for at most NumRetries attempts.
func (a *Analyzer) getResponse(ctx context.Context, req llm.CompletionRequest, outputFields []string) (map[string]interface{}, error) {
	retries := a.cfg.NumRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			a.warnf("Attempt %d", attempt+1)
		}

		resp, err := a.provider.Complete(ctx, req)
		if err != nil {
			lastErr = err
			a.warnf("Could not get a response from the model: %v", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		a.tracker.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

		for _, content := range resp.Contents {
			response, err := ParseResponse(content, outputFields)
			if err != nil {
				lastErr = err
				a.warnf("%v", err)
				continue
			}
			if a.verbose {
				pretty, _ := json.Marshal(response)
				a.logf("Response:\n%s", pretty)
			}
			return response, nil
		}
	}

	return nil, fmt.Errorf("no valid completion after %d attempts: %w", retries, lastErr)
}

// buildExamples turns the designated rows into few-shot user/assistant
// exchanges: the user message is the full prompt as it would be sent for
// that row, the assistant message is the row's output fields as JSON.
func (a *Analyzer) buildExamples(tbl table.Table, req Request) ([]llm.Message, error) {
	var messages []llm.Message

	for _, row := range req.Examples {
		if row < 0 || row >= tbl.Len() {
			a.warnf("Skipping example %d (no such row)", row+table.FirstDataRow)
			continue
		}

		a.logf("Adding example row %d", row+table.FirstDataRow)

		prompt := BuildPrompt(req.Prompt, req.InputFields, req.OutputFields, cellGetter(tbl, row))

		response := make(map[string]string, len(req.OutputFields))
		for _, field := range req.OutputFields {
			val, _ := tbl.Get(row, field)
			response[field] = val
		}
		data, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("marshal example row %d: %w", row, err)
		}

		messages = append(messages,
			llm.Message{Role: "user", Content: prompt},
			llm.Message{Role: "assistant", Content: string(data)},
		)
	}

	return messages, nil
}

func cellGetter(tbl table.Table, row int) func(string) string {
	return func(field string) string {
		val, _ := tbl.Get(row, field)
		return val
	}
}

func anyFilled(tbl table.Table, row int, fields []string) bool {
	for _, field := range fields {
		if val, _ := tbl.Get(row, field); val != "" {
			return true
		}
	}
	return false
}

func hasColumn(tbl table.Table, name string) bool {
	for _, h := range tbl.Headers() {
		if h == name {
			return true
		}
	}
	return false
}

func defaultInputFields(tbl table.Table, outputFields []string) []string {
	skip := make(map[string]bool, len(outputFields))
	for _, f := range outputFields {
		skip[f] = true
	}

	var fields []string
	for _, h := range tbl.Headers() {
		if !skip[h] {
			fields = append(fields, h)
		}
	}
	return fields
}

func (a *Analyzer) logf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (a *Analyzer) warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
