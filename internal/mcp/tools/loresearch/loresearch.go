// Package loresearch exposes the Lore Retriever's hybrid keyword+vector
// search as an MCP tool, so the same lookup the Coordinator uses internally
// is also invokable by an external LLM harness or dev tooling consumer.
package loresearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/mcp/tools"
	"github.com/mrwong99/adventure-engine/pkg/llm"
)

// searchArgs is the JSON-decoded input for the "search_lore" tool.
type searchArgs struct {
	// Query is the keyword or phrase to search for.
	Query string `json:"query"`

	// Location optionally restricts results to entries applicable at a
	// specific location ID. An empty string applies no location filter.
	Location string `json:"location,omitempty"`

	// Region optionally restricts results to entries applicable within a
	// specific region ID. An empty string applies no region filter.
	Region string `json:"region,omitempty"`

	// Lang selects which locale of each entry's content to return
	// ("cn" or "en"). Defaults to "cn" when omitted.
	Lang string `json:"lang,omitempty"`
}

// searchResult is a single lore hit returned to the caller, flattened to the
// fields useful outside the engine's own internal types.
type searchResult struct {
	UID     int    `json:"uid"`
	Content string `json:"content"`
}

func searchHandler(retriever *lore.Retriever) func(context.Context, string) (string, error) {
	return func(ctx context.Context, args string) (string, error) {
		var a searchArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("loresearch: search_lore: failed to parse arguments: %w", err)
		}
		if a.Query == "" {
			return "", fmt.Errorf("loresearch: search_lore: query must not be empty")
		}
		lang := a.Lang
		if lang == "" {
			lang = "cn"
		}

		entries := retriever.SearchEntries(ctx, a.Query, a.Location, a.Region, lang)
		results := make([]searchResult, 0, len(entries))
		for _, e := range entries {
			results = append(results, searchResult{
				UID:     e.UID,
				Content: e.Content.Resolve(lang),
			})
		}

		res, err := json.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("loresearch: search_lore: failed to encode result: %w", err)
		}
		return string(res), nil
	}
}

// Tools returns the "search_lore" tool bound to retriever.
func Tools(retriever *lore.Retriever) []tools.Tool {
	return []tools.Tool{
		{
			Definition: llm.ToolDefinition{
				Name:        "search_lore",
				Description: "Search the world pack's lore entries by keyword, optionally filtered to a location or region, and return matching entries with their resolved text.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Keyword or phrase to search for across lore entry keys and content.",
						},
						"location": map[string]any{
							"type":        "string",
							"description": "Location ID to restrict results to. Omit to search without a location filter.",
						},
						"region": map[string]any{
							"type":        "string",
							"description": "Region ID to restrict results to. Omit to search without a region filter.",
						},
						"lang": map[string]any{
							"type":        "string",
							"description": "Locale to resolve entry content in (\"cn\" or \"en\"). Defaults to \"cn\".",
						},
					},
					"required": []string{"query"},
				},
				EstimatedDurationMs: 30,
				MaxDurationMs:       150,
				Idempotent:          true,
				CacheableSeconds:    60,
			},
			Handler:     searchHandler(retriever),
			DeclaredP50: 30,
			DeclaredMax: 150,
		},
	}
}
