package loresearch

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
)

func testRetriever(t *testing.T) *lore.Retriever {
	t.Helper()
	entries := []worldpack.LoreEntry{
		{UID: 1, PrimaryKeys: []string{"lantern"}, Content: i18n.Pair{EN: "A lantern guides lost sailors."}, Order: 50},
		{UID: 2, SecondaryKeys: []string{"harbor"}, Content: i18n.Pair{EN: "The harbor smells of brine."}, Order: 10},
	}
	catalog, err := worldpack.NewCatalog(entries, func(e worldpack.LoreEntry) string { return strconv.Itoa(e.UID) })
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	pack := &worldpack.Pack{Lore: catalog}
	return lore.New(pack, nil, lore.DefaultConfig(), nil)
}

func TestSearchHandler_KnownKeyword(t *testing.T) {
	t.Parallel()
	toolList := Tools(testRetriever(t))
	if len(toolList) != 1 {
		t.Fatalf("got %d tools, want 1", len(toolList))
	}
	tool := toolList[0]
	if tool.Definition.Name != "search_lore" {
		t.Fatalf("tool name = %q, want search_lore", tool.Definition.Name)
	}

	args, _ := json.Marshal(searchArgs{Query: "lantern", Lang: "en"})
	out, err := tool.Handler(context.Background(), string(args))
	if err != nil {
		t.Fatalf("handler unexpected error: %v", err)
	}

	var results []searchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result for 'lantern'")
	}
	found := false
	for _, r := range results {
		if r.UID == 1 && r.Content == "A lantern guides lost sailors." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected uid=1 with resolved content in results, got %+v", results)
	}
}

func TestSearchHandler_NoMatch(t *testing.T) {
	t.Parallel()
	toolList := Tools(testRetriever(t))
	tool := toolList[0]

	args, _ := json.Marshal(searchArgs{Query: "nonexistent-keyword-xyz", Lang: "en"})
	out, err := tool.Handler(context.Background(), string(args))
	if err != nil {
		t.Fatalf("handler unexpected error: %v", err)
	}

	var results []searchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	t.Parallel()
	toolList := Tools(testRetriever(t))
	tool := toolList[0]

	args, _ := json.Marshal(searchArgs{Query: ""})
	_, err := tool.Handler(context.Background(), string(args))
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchHandler_InvalidArgs(t *testing.T) {
	t.Parallel()
	toolList := Tools(testRetriever(t))
	tool := toolList[0]

	_, err := tool.Handler(context.Background(), "{not json")
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestSearchHandler_DefaultsLangToCN(t *testing.T) {
	t.Parallel()
	toolList := Tools(testRetriever(t))
	tool := toolList[0]

	// Entries only have EN content in this fixture; Resolve falls back to EN
	// when CN is empty, so results should still come back non-empty.
	args, _ := json.Marshal(searchArgs{Query: "harbor"})
	out, err := tool.Handler(context.Background(), string(args))
	if err != nil {
		t.Fatalf("handler unexpected error: %v", err)
	}
	var results []searchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result for 'harbor'")
	}
}
