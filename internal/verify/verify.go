// Package verify checks that citations quoted in generated text genuinely
// occur in the source material they claim to come from, and rewrites the
// text to reflect what was found.
package verify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/scholarlabs/scholar/internal/extract"
	"github.com/scholarlabs/scholar/internal/match"
	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/table"
	"github.com/scholarlabs/scholar/internal/worker"
)

// Verifier rewrites generated text so every quoted citation is replaced by
// its best match from the reference text, or by the not-found marker.
type Verifier struct {
	// MaxDistance is the edit-operation budget passed to the matcher.
	MaxDistance int

	// Workers sets row-level parallelism for table verification.
	Workers int

	// Verbose enables per-citation progress lines on stderr.
	Verbose bool

	// Resolver, when set, maps input-field values to reference text. It is
	// used to replace document URLs with the document's contents. A resolver
	// error falls back to the raw value.
	Resolver func(ctx context.Context, value string) (string, error)
}

// NewVerifier creates a Verifier from configuration
func NewVerifier(cfg model.VerifyConfig, workers int, verbose bool) *Verifier {
	return &Verifier{
		MaxDistance: cfg.MaxDistance,
		Workers:     workers,
		Verbose:     verbose,
	}
}

// Verify extracts citations from output and substitutes each, in extraction
// order, with its best match in reference. Substitution is first-occurrence
// by value and replaces only the inner text; the surrounding quote
// characters are untouched. Running Verify twice over unchanged inputs
// produces identical text.
func (v *Verifier) Verify(output, reference string) string {
	citations := extract.ExtractCitations(output)
	verified := output

	for _, citation := range citations {
		v.logf("Checking citation: %q", truncate(citation.Text, 50))

		result := match.Find(citation.Text, reference, v.MaxDistance)
		if result.Found {
			verified = strings.Replace(verified, citation.Text, result.Text, 1)
			if result.Distance == 0 {
				v.logf("Found exact match")
			} else {
				v.logf("Found a match %d character(s) apart", result.Distance)
			}
		} else {
			verified = strings.Replace(verified, citation.Text, model.NotFoundMarker, 1)
			v.logf("%s", model.NotFoundMarker)
		}
	}

	return verified
}

// VerifyTable verifies the given rows of a table. For each row the reference
// text is the row's input-field values joined by a blank line, and the result
// is written to the <outputField>_verified column (full overwrite). A row
// with an empty or absent output cell gets an empty verified cell; a bad row
// never aborts the batch. Rows are independent and processed concurrently.
func (v *Verifier) VerifyTable(ctx context.Context, tbl table.Table, outputField string, inputFields []string, rows []int) error {
	if !hasColumn(tbl, outputField) {
		return fmt.Errorf("output field %q not found", outputField)
	}

	if len(inputFields) == 0 {
		inputFields = defaultInputFields(tbl, outputField)
	}
	for _, field := range inputFields {
		if !hasColumn(tbl, field) {
			return fmt.Errorf("input field %q not found", field)
		}
	}

	verifiedField := table.VerifiedFieldName(outputField)
	tbl.EnsureColumn(verifiedField)

	pool := worker.NewPoolWithContext(ctx, v.Workers)
	pool.Start()

	for _, row := range rows {
		pool.Submit(&rowJob{
			verifier:      v,
			table:         tbl,
			row:           row,
			outputField:   outputField,
			verifiedField: verifiedField,
			inputFields:   inputFields,
		})
	}

	for _, result := range pool.Wait() {
		if err := result.GetError(); err != nil {
			v.logf("row skipped: %v", err)
		}
	}

	return nil
}

// rowJob verifies a single row
type rowJob struct {
	verifier      *Verifier
	table         table.Table
	row           int
	outputField   string
	verifiedField string
	inputFields   []string
}

// rowResult reports the outcome of one row
type rowResult struct {
	row int
	err error
}

func (r *rowResult) GetError() error {
	return r.err
}

// Execute verifies the job's row
func (j *rowJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &rowResult{row: j.row, err: err}
	}
	if j.row < 0 || j.row >= j.table.Len() {
		return &rowResult{row: j.row, err: fmt.Errorf("row %d: no such row", j.row+table.FirstDataRow)}
	}

	output, _ := j.table.Get(j.row, j.outputField)
	if strings.TrimSpace(output) == "" {
		// Best effort: nothing to verify for this row
		if err := j.table.Set(j.row, j.verifiedField, ""); err != nil {
			return &rowResult{row: j.row, err: err}
		}
		return &rowResult{row: j.row}
	}

	parts := make([]string, 0, len(j.inputFields))
	for _, field := range j.inputFields {
		val, _ := j.table.Get(j.row, field)
		if j.verifier.Resolver != nil {
			resolved, err := j.verifier.Resolver(ctx, val)
			if err != nil {
				j.verifier.logf("row %d: could not resolve %q: %v", j.row+table.FirstDataRow, truncate(val, 50), err)
			} else {
				val = resolved
			}
		}
		parts = append(parts, val)
	}
	reference := strings.Join(parts, "\n\n")

	verified := j.verifier.Verify(output, reference)
	if err := j.table.Set(j.row, j.verifiedField, verified); err != nil {
		return &rowResult{row: j.row, err: err}
	}

	return &rowResult{row: j.row}
}

func (v *Verifier) logf(format string, args ...interface{}) {
	if v.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func hasColumn(tbl table.Table, name string) bool {
	for _, h := range tbl.Headers() {
		if h == name {
			return true
		}
	}
	return false
}

// defaultInputFields returns every column except the output field and any
// verified columns.
func defaultInputFields(tbl table.Table, outputField string) []string {
	var fields []string
	for _, h := range tbl.Headers() {
		if h == outputField || strings.HasSuffix(h, "_verified") {
			continue
		}
		fields = append(fields, h)
	}
	return fields
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
