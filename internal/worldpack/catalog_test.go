package worldpack

import "testing"

func TestCatalogGetAndAll(t *testing.T) {
	t.Parallel()
	type item struct {
		ID   string
		Name string
	}
	items := []item{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}

	cat, err := NewCatalog(items, func(i item) string { return i.ID })
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}

	got, ok := cat.Get("a")
	if !ok || got.Name != "Alpha" {
		t.Errorf("Get(%q) = %+v, %v", "a", got, ok)
	}
	if _, ok := cat.Get("missing"); ok {
		t.Error("Get(missing) should report ok=false")
	}

	all := cat.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("All() = %+v, want load order a,b", all)
	}
}

func TestCatalogDuplicateID(t *testing.T) {
	t.Parallel()
	type item struct{ ID string }
	_, err := NewCatalog([]item{{ID: "x"}, {ID: "x"}}, func(i item) string { return i.ID })
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestLoreApplicableTo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		entry  LoreEntry
		region string
		loc    string
		want   bool
	}{
		{"unrestricted", LoreEntry{}, "r1", "l1", true},
		{"region match", LoreEntry{ApplicableRegions: []string{"r1"}}, "r1", "l1", true},
		{"region mismatch", LoreEntry{ApplicableRegions: []string{"r2"}}, "r1", "l1", false},
		{"location match", LoreEntry{ApplicableLocations: []string{"l1"}}, "r1", "l1", true},
		{"location mismatch", LoreEntry{ApplicableLocations: []string{"l2"}}, "r1", "l1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoreApplicableTo(tt.entry, tt.region, tt.loc); got != tt.want {
				t.Errorf("LoreApplicableTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderOrDefault(t *testing.T) {
	t.Parallel()
	if got := OrderOrDefault(LoreEntry{}); got != 100 {
		t.Errorf("default Order = %d, want 100", got)
	}
	if got := OrderOrDefault(LoreEntry{Order: 5}); got != 5 {
		t.Errorf("explicit Order = %d, want 5", got)
	}
}
