// Package scene assembles the Location Context: the region, location,
// applicable lore, and atmosphere guidance a coordinator turn injects into
// every LLM prompt that needs to know "where is the player right now". The
// region and lore lookups are independent reads over the same world pack
// and run concurrently.
package scene

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
)

const globalRegionID = "_global"

var globalRegionName = i18n.Pair{CN: "全局区域", EN: "Global Region"}

// RegionView is the region slice of a Location Context.
type RegionView struct {
	ID                 string
	Name               string
	NarrativeTone      string
	AtmosphereKeywords []string
}

// LocationView is the location slice of a Location Context.
type LocationView struct {
	ID                   string
	Name                 string
	Description          string
	Atmosphere           string
	VisibleItems         []string
	HiddenItemsRevealed  []string
	HiddenItemsRemaining []string
}

// Context is the full assembled Location Context.
type Context struct {
	Region             RegionView
	Location           LocationView
	BasicLore          []string
	AtmosphereGuidance string
}

// Assembler builds Context values over one world pack.
type Assembler struct {
	pack *worldpack.Pack
}

// New returns an Assembler over pack.
func New(pack *worldpack.Pack) *Assembler {
	return &Assembler{pack: pack}
}

// Assemble fetches the region and lore components concurrently, builds the
// location component, and combines them into a Context. discovered is the set of item ids the
// player has found at this location so far.
func (a *Assembler) Assemble(ctx context.Context, locationID string, discovered map[string]bool, lang string) (Context, error) {
	loc, ok := a.pack.Locations.Get(locationID)
	if !ok {
		return Context{}, fmt.Errorf("scene: unknown location %q", locationID)
	}

	var (
		region RegionView
		lore   []string
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		region = a.regionView(loc, lang)
		return nil
	})

	eg.Go(func() error {
		lore = a.basicLore(egCtx, loc, lang)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Context{}, fmt.Errorf("scene: assembling context for %q: %w", locationID, err)
	}

	locationView := a.locationView(loc, discovered, lang)

	return Context{
		Region:             region,
		Location:           locationView,
		BasicLore:          lore,
		AtmosphereGuidance: atmosphereGuidance(region, locationView, lang),
	}, nil
}

func (a *Assembler) regionView(loc worldpack.Location, lang string) RegionView {
	if loc.RegionID == "" {
		return RegionView{ID: globalRegionID, Name: globalRegionName.Resolve(lang)}
	}
	region, ok := a.pack.Regions.Get(loc.RegionID)
	if !ok {
		return RegionView{ID: globalRegionID, Name: globalRegionName.Resolve(lang)}
	}
	return RegionView{
		ID:                 region.ID,
		Name:               region.Name.Resolve(lang),
		NarrativeTone:      region.NarrativeTone.Resolve(lang),
		AtmosphereKeywords: region.AtmosphereKeywords,
	}
}

func (a *Assembler) locationView(loc worldpack.Location, discovered map[string]bool, lang string) LocationView {
	visible := loc.VisibleItems
	if len(visible) == 0 {
		visible = loc.LegacyItems
	}

	var revealed, remaining []string
	for _, item := range loc.HiddenItems {
		if discovered[item] {
			revealed = append(revealed, item)
		} else {
			remaining = append(remaining, item)
		}
	}

	return LocationView{
		ID:                   loc.ID,
		Name:                 loc.Name.Resolve(lang),
		Description:          loc.Description.Resolve(lang),
		Atmosphere:           loc.Atmosphere.Resolve(lang),
		VisibleItems:         visible,
		HiddenItemsRevealed:  revealed,
		HiddenItemsRemaining: remaining,
	}
}

// basicLore implements lore_for_location(location_id, visibility=basic): the
// union of constant entries, entries naming this location, entries naming
// its region, and unrestricted entries — sorted by order.
func (a *Assembler) basicLore(_ context.Context, loc worldpack.Location, lang string) []string {
	var matched []worldpack.LoreEntry
	for _, entry := range a.pack.Lore.All() {
		if entry.Visibility != "" && entry.Visibility != "basic" && !entry.Constant {
			continue
		}
		unrestricted := len(entry.ApplicableLocations) == 0 && len(entry.ApplicableRegions) == 0
		switch {
		case entry.Constant,
			contains(entry.ApplicableLocations, loc.ID),
			contains(entry.ApplicableRegions, loc.RegionID),
			unrestricted:
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return worldpack.OrderOrDefault(matched[i]) < worldpack.OrderOrDefault(matched[j])
	})

	out := make([]string, len(matched))
	for i, e := range matched {
		out[i] = e.Content.Resolve(lang)
	}
	return out
}

func atmosphereGuidance(region RegionView, loc LocationView, lang string) string {
	var parts []string
	if region.NarrativeTone != "" {
		parts = append(parts, region.NarrativeTone)
	}
	if loc.Atmosphere != "" {
		parts = append(parts, loc.Atmosphere)
	}
	if len(region.AtmosphereKeywords) > 0 {
		label := i18n.Pair{CN: "氛围关键词", EN: "atmosphere keywords"}.Resolve(lang)
		parts = append(parts, label+": "+joinComma(region.AtmosphereKeywords))
	}
	return joinPipe(parts)
}

func contains(ss []string, target string) bool {
	if target == "" {
		return false
	}
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func joinPipe(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " | "
		}
		out += p
	}
	return out
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
