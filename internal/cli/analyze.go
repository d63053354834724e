package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/scholarlabs/scholar/internal/analyze"
	"github.com/scholarlabs/scholar/internal/llm"
	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/pricing"
	"github.com/scholarlabs/scholar/internal/table"
	"github.com/scholarlabs/scholar/internal/verify"
	"github.com/spf13/cobra"
)

var (
	analyzePrompt       string
	analyzePromptFile   string
	analyzeOutputFields []string
	analyzeInputFields  []string
	analyzeRows         string
	analyzeExamples     string
	analyzeProvider     string
	analyzeModel        string
	analyzeNumResults   int
	analyzeRetries      int
	analyzeTopP         float32
	analyzeMaxTokens    int
	analyzeOverwrite    bool
	analyzeCheckCites   bool
	analyzeNoInPlace    bool
	analyzeTimeout      time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv>",
	Short: "Run an LLM prompt over every row of a CSV file",
	Long: `Analyze sends each selected row to the model together with your prompt
and writes the fields of the JSON answer back into output columns.

Input fields are quoted to the model inside fenced blocks; output fields
are created in the file if missing. Rows whose output fields are already
filled are skipped unless --overwrite is given.

Example:
  scholar analyze papers.csv -p "Summarize the abstract and quote the key claim." \
    --output-fields summary,key_claim
  scholar analyze papers.csv -p "..." --output-fields verdict --rows 2:50 --examples 2,3
  scholar analyze papers.csv -p "..." --output-fields quote --check-citations`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", "", "task description sent with every row")
	analyzeCmd.Flags().StringVar(&analyzePromptFile, "prompt-file", "", "file holding the task description")
	analyzeCmd.Flags().StringSliceVar(&analyzeOutputFields, "output-fields", nil, "columns to fill from the model's JSON answer (required)")
	analyzeCmd.Flags().StringSliceVar(&analyzeInputFields, "input-fields", nil, "columns quoted to the model (default: all non-output columns)")
	analyzeCmd.Flags().StringVar(&analyzeRows, "rows", "", "sheet-style row selection, e.g. 2:10,12,15: (default: all rows)")
	analyzeCmd.Flags().StringVar(&analyzeExamples, "examples", "", "rows whose filled outputs become few-shot examples, e.g. 2,3")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "model name override")
	analyzeCmd.Flags().IntVar(&analyzeNumResults, "num-results", 0, "completions requested per attempt; first valid one wins")
	analyzeCmd.Flags().IntVar(&analyzeRetries, "retries", 0, "attempts before a row is skipped")
	analyzeCmd.Flags().Float32Var(&analyzeTopP, "top-p", 0, "nucleus sampling parameter")
	analyzeCmd.Flags().IntVar(&analyzeMaxTokens, "max-tokens", 0, "response token limit (0 = provider default)")
	analyzeCmd.Flags().BoolVar(&analyzeOverwrite, "overwrite", false, "process rows even when output fields are already filled")
	analyzeCmd.Flags().BoolVar(&analyzeCheckCites, "check-citations", false, "verify quoted citations after analysis")
	analyzeCmd.Flags().BoolVar(&analyzeNoInPlace, "no-in-place", false, "write results to a new timestamped file instead of the input")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "overall run timeout (0 = none)")

	analyzeCmd.MarkFlagsOneRequired("prompt", "prompt-file")
	analyzeCmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	_ = analyzeCmd.MarkFlagRequired("output-fields")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	if analyzePromptFile != "" {
		data, err := os.ReadFile(analyzePromptFile)
		if err != nil {
			return fmt.Errorf("read prompt file: %w", err)
		}
		analyzePrompt = string(data)
	}

	ctx := context.Background()
	if analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
	}

	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Output.InPlace = !analyzeNoInPlace
	if analyzeProvider != "" {
		cfg.LLM.Provider = analyzeProvider
	}
	if analyzeModel != "" {
		cfg.LLM.Model = analyzeModel
	}
	if analyzeNumResults > 0 {
		cfg.Analyze.NumResults = analyzeNumResults
	}
	if analyzeRetries > 0 {
		cfg.Analyze.NumRetries = analyzeRetries
	}
	if analyzeTopP > 0 {
		cfg.Analyze.TopP = analyzeTopP
	}
	if analyzeMaxTokens > 0 {
		cfg.Analyze.MaxTokens = analyzeMaxTokens
	}

	if err := configureAPIKey(cfg); err != nil {
		return err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.Analyze.MaxTokens))
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}

	tbl, err := table.LoadCSV(path)
	if err != nil {
		return err
	}

	rows := parseRows(analyzeRows, tbl)

	var examples []int
	if analyzeExamples != "" {
		examples = table.ParseRowRanges(analyzeExamples, tbl.Len())
	}

	prices := pricing.Load(ctx, cfg.Analyze.PricingURL)
	tracker := pricing.NewTracker(prices, effectiveModel(cfg))

	outPath := outputTarget(path, "analyzed", cfg.Output.InPlace)

	analyzer := analyze.NewAnalyzer(provider, cfg.Analyze, tracker, verbose)
	err = analyzer.Run(ctx, tbl, analyze.Request{
		Prompt:       analyzePrompt,
		InputFields:  analyzeInputFields,
		OutputFields: analyzeOutputFields,
		Rows:         rows,
		Examples:     examples,
		Model:        cfg.LLM.Model,
		Overwrite:    analyzeOverwrite,
		WriteRow: func(row int) error {
			return tbl.Save(outPath)
		},
	})
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if analyzeCheckCites {
		verifier := verify.NewVerifier(cfg.Verify, cfg.Concurrency.VerifyWorkers, verbose)
		verifier.Resolver = newFetcher(cfg).Resolve
		for _, field := range analyzeOutputFields {
			if err := verifier.VerifyTable(ctx, tbl, field, analyzeInputFields, rows); err != nil {
				return fmt.Errorf("verify %s failed: %w", field, err)
			}
		}
	}

	if err := tbl.Save(outPath); err != nil {
		return err
	}

	if verbose || !cfg.Output.InPlace {
		fmt.Fprintf(os.Stderr, "Results written to %s\n", outPath)
	}

	return nil
}

// effectiveModel is the model name cost tracking is keyed on
func effectiveModel(cfg *model.Config) string {
	if cfg.LLM.Model != "" {
		return cfg.LLM.Model
	}
	return "gpt-4o-mini"
}
