package worldpack

// RegionOf returns the Region a location belongs to, if any.
func (p *Pack) RegionOf(locationID string) (Region, bool) {
	loc, ok := p.Locations.Get(locationID)
	if !ok || loc.RegionID == "" {
		return Region{}, false
	}
	return p.Regions.Get(loc.RegionID)
}

// NPCsAt returns every NPC whose current location (from its world pack seed
// body) matches locationID. The Coordinator calls it on every scene
// transition to refresh GameState's active NPC list; GameState keeps no
// per-NPC location of its own.
func (p *Pack) NPCsAt(locationID string) []NPC {
	var out []NPC
	for _, n := range p.NPCs.All() {
		if n.Body.CurrentLocation == locationID {
			out = append(out, n)
		}
	}
	return out
}

// LoreApplicableTo reports whether entry applies to the given region and
// location, per its ApplicableRegions/ApplicableLocations filters. An entry
// with no filters on a given axis is unrestricted on that axis.
func LoreApplicableTo(entry LoreEntry, regionID, locationID string) bool {
	if len(entry.ApplicableRegions) > 0 && !contains(entry.ApplicableRegions, regionID) {
		return false
	}
	if len(entry.ApplicableLocations) > 0 && !contains(entry.ApplicableLocations, locationID) {
		return false
	}
	return true
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

// OrderOrDefault returns entry.Order, substituting the documented default of
// 100 when the world pack left it unset.
func OrderOrDefault(entry LoreEntry) int {
	if entry.Order == 0 {
		return 100
	}
	return entry.Order
}
