package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/table"
	"github.com/scholarlabs/scholar/internal/verify"
	"github.com/spf13/cobra"
)

var (
	verifyOutputField string
	verifyInputFields []string
	verifyRows        string
	verifyMaxDistance int
	verifyWorkers     int
	verifyNoFetch     bool
	verifyNoInPlace   bool
	verifyTimeout     time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file.csv>",
	Short: "Verify quoted citations against each row's source text",
	Long: `Verify extracts the quoted citations from an output column and checks
each one against the row's input fields, joined as one reference text.
Input fields holding document URLs (including Google Doc links) are
replaced by the document's text before matching.

Every citation is fuzzy-matched within an edit-operation budget. The
<field>_verified column receives the output text with each citation
replaced by the passage actually found in the sources, or by
"CITATION NOT FOUND" when nothing within budget exists.

Example:
  scholar verify papers.csv --output-field key_claim
  scholar verify papers.csv --output-field quote --input-fields fulltext --max-distance 10
  scholar verify papers.csv --output-field quote --rows 2:100`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyOutputField, "output-field", "", "column holding the text whose citations are checked (required)")
	verifyCmd.Flags().StringSliceVar(&verifyInputFields, "input-fields", nil, "columns forming the reference text (default: all non-output, non-verified columns)")
	verifyCmd.Flags().StringVar(&verifyRows, "rows", "", "sheet-style row selection, e.g. 2:10,12,15: (default: all rows)")
	verifyCmd.Flags().IntVar(&verifyMaxDistance, "max-distance", 0, "edit-operation budget for fuzzy matching")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "rows verified concurrently")
	verifyCmd.Flags().BoolVar(&verifyNoFetch, "no-fetch", false, "treat URL-valued input fields as literal text")
	verifyCmd.Flags().BoolVar(&verifyNoInPlace, "no-in-place", false, "write results to a new timestamped file instead of the input")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 0, "overall run timeout (0 = none)")

	_ = verifyCmd.MarkFlagRequired("output-field")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	ctx := context.Background()
	if verifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, verifyTimeout)
		defer cancel()
	}

	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Output.InPlace = !verifyNoInPlace
	if verifyMaxDistance > 0 {
		cfg.Verify.MaxDistance = verifyMaxDistance
	}
	if verifyWorkers > 0 {
		cfg.Concurrency.VerifyWorkers = verifyWorkers
	}

	tbl, err := table.LoadCSV(path)
	if err != nil {
		return err
	}

	rows := parseRows(verifyRows, tbl)

	verifier := verify.NewVerifier(cfg.Verify, cfg.Concurrency.VerifyWorkers, verbose)
	if !verifyNoFetch {
		verifier.Resolver = newFetcher(cfg).Resolve
	}

	if err := verifier.VerifyTable(ctx, tbl, verifyOutputField, verifyInputFields, rows); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	outPath := outputTarget(path, "verified", cfg.Output.InPlace)
	if err := tbl.Save(outPath); err != nil {
		return err
	}

	if verbose || !cfg.Output.InPlace {
		fmt.Fprintf(os.Stderr, "Results written to %s\n", outPath)
	}

	return nil
}
