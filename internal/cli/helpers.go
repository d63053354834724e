package cli

import (
	"fmt"
	"os"

	"github.com/scholarlabs/scholar/internal/cache"
	"github.com/scholarlabs/scholar/internal/fetch"
	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/table"
)

// configureAPIKey resolves the provider's API key from the environment
func configureAPIKey(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// newFetcher builds the document fetcher with the configured cache layers
func newFetcher(cfg *model.Config) *fetch.Fetcher {
	var c cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
	}
	return fetch.NewFetcher(cfg.Fetch, c, cfg.Cache.DiskTTL, verbose)
}

// parseRows resolves a sheet-style row range string against the table;
// an empty string selects every row.
func parseRows(rangeStr string, tbl table.Table) []int {
	if rangeStr == "" {
		rows := make([]int, tbl.Len())
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	return table.ParseRowRanges(rangeStr, tbl.Len())
}

// outputTarget picks the file results are saved to: the source file itself,
// or a timestamped sibling when in-place saving is off. Computed once per
// run so incremental row saves all land in the same file.
func outputTarget(path, suffix string, inPlace bool) string {
	if inPlace {
		return path
	}
	return table.OutputPath(path, suffix)
}
