package lore

import (
	"context"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

func testPack(t *testing.T) *worldpack.Pack {
	t.Helper()
	entries := []worldpack.LoreEntry{
		{UID: 1, PrimaryKeys: []string{"lantern"}, Content: i18n.Pair{EN: "A lantern guides lost sailors."}, Order: 50},
		{UID: 2, SecondaryKeys: []string{"harbor"}, Content: i18n.Pair{EN: "The harbor smells of brine."}, Order: 10},
		{UID: 3, Constant: true, Content: i18n.Pair{EN: "The world is always watching."}, Order: 200},
		{UID: 4, Visibility: "detailed", PrimaryKeys: []string{"lantern"}, Content: i18n.Pair{EN: "Hidden lantern lore."}},
		{UID: 5, PrimaryKeys: []string{"lantern"}, ApplicableLocations: []string{"dock"}, Content: i18n.Pair{EN: "Dock-only lantern note."}},
	}
	lore, err := worldpack.NewCatalog(entries, func(e worldpack.LoreEntry) string { return itoaUID(e.UID) })
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return &worldpack.Pack{Lore: lore}
}

func TestSearchEntriesKeywordAndConstant(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	r := New(pack, nil, DefaultConfig(), nil)

	got := r.SearchEntries(context.Background(), "lantern", "harbor_square", "", "en")

	var uids []int
	for _, e := range got {
		uids = append(uids, e.UID)
	}
	if !contains(uids, 1) {
		t.Errorf("expected primary-key match uid=1 in results, got %v", uids)
	}
	if !contains(uids, 3) {
		t.Errorf("expected constant entry uid=3 in results, got %v", uids)
	}
	if contains(uids, 4) {
		t.Errorf("detailed non-constant entry uid=4 should be filtered out, got %v", uids)
	}
	if contains(uids, 5) {
		t.Errorf("location-restricted entry uid=5 should be filtered out at harbor_square, got %v", uids)
	}
}

func TestSearchEntriesLocationFilterAllows(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	r := New(pack, nil, DefaultConfig(), nil)

	got := r.SearchEntries(context.Background(), "lantern", "dock", "", "en")
	var uids []int
	for _, e := range got {
		uids = append(uids, e.UID)
	}
	if !contains(uids, 5) {
		t.Errorf("expected uid=5 to be visible at its applicable location, got %v", uids)
	}
}

func TestSearchEmptyQueryReturnsOnlyConstants(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	r := New(pack, nil, DefaultConfig(), nil)

	got := r.SearchEntries(context.Background(), "", "harbor_square", "", "en")
	if len(got) != 1 || got[0].UID != 3 {
		t.Errorf("expected only the constant entry, got %+v", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()
	if got := DetectLanguage("灯塔"); got != "cn" {
		t.Errorf("DetectLanguage(cn text) = %q, want cn", got)
	}
	if got := DetectLanguage("lantern"); got != "en" {
		t.Errorf("DetectLanguage(en text) = %q, want en", got)
	}
}

func TestTokenizeCapsAndDedupes(t *testing.T) {
	t.Parallel()
	toks := Tokenize("the lantern the lantern harbor dock square plaza market")
	if len(toks) > 5 {
		t.Errorf("Tokenize returned %d terms, want <= 5", len(toks))
	}
	seen := make(map[string]bool)
	for _, tok := range toks {
		if seen[tok] {
			t.Errorf("Tokenize produced duplicate term %q", tok)
		}
		seen[tok] = true
	}
}

func contains(xs []int, target int) bool {
	for _, x := range xs {
		if x == target {
			return true
		}
	}
	return false
}

// fakeCollection returns a fixed QueryResult regardless of queryText, so
// tests can pin down exact vector-score contributions.
type fakeCollection struct {
	result vectorstore.QueryResult
}

func (f *fakeCollection) Add(context.Context, []string, []string, []map[string]string) error {
	return nil
}

func (f *fakeCollection) Query(context.Context, string, int, map[string]string) (vectorstore.QueryResult, error) {
	return f.result, nil
}

func TestSeedVectorMatchesDualMatchDropsVectorScore(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	vec := &fakeCollection{result: vectorstore.QueryResult{
		IDs:       []string{itoaUID(1)},
		Distances: []float32{0},
	}}
	r := New(pack, vec, DefaultConfig(), nil)

	scores := map[int]float64{1: r.cfg.PrimaryWeight} // uid=1 already has a keyword hit
	r.seedVectorMatches(context.Background(), "lantern", scores)

	// A dual match must multiply the existing keyword score by
	// DualMatchBoost and discard the vector score, matching the
	// ground-truth scorer rather than adding the vector score in first.
	want := r.cfg.PrimaryWeight * r.cfg.DualMatchBoost
	if scores[1] != want {
		t.Errorf("dual-match score = %v, want %v (keyword score * DualMatchBoost, vector score discarded)", scores[1], want)
	}
}

func TestMergeConstantsDoesNotClobberHigherScore(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	r := New(pack, nil, DefaultConfig(), nil)

	scores := map[int]float64{3: 9.0} // uid=3 is the constant entry in testPack
	r.mergeConstants(scores)

	if scores[3] != 9.0 {
		t.Errorf("mergeConstants overwrote an existing higher score: got %v, want 9.0", scores[3])
	}
}

func TestMergeConstantsFillsDefaultWhenUnscored(t *testing.T) {
	t.Parallel()
	pack := testPack(t)
	r := New(pack, nil, DefaultConfig(), nil)

	scores := map[int]float64{}
	r.mergeConstants(scores)

	if scores[3] != constantScore {
		t.Errorf("mergeConstants did not fill default score for uid=3: got %v, want %v", scores[3], constantScore)
	}
}
