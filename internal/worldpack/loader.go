package worldpack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// document is the on-disk shape of a world pack file: one JSON document
// holding every catalog. Regions, locations, lore, and NPCs are flat arrays
// keyed by their own id field rather than nested under ids, so the schema
// stays simple and the Catalog constructors can report duplicates.
type document struct {
	PlayerCharacter PlayerCharacter `json:"player_character"`
	LoreEntries     []LoreEntry     `json:"lore_entries"`
	Regions         []Region        `json:"regions"`
	Locations       []Location      `json:"locations"`
	NPCs            []NPC           `json:"npcs"`
}

// Pack is the fully loaded, validated, and indexed content a session is
// seeded from.
type Pack struct {
	PlayerCharacter PlayerCharacter
	Lore            *Catalog[LoreEntry]
	Regions         *Catalog[Region]
	Locations       *Catalog[Location]
	NPCs            *Catalog[NPC]
}

var packSchema *jsonschema.Schema

func init() {
	s, err := jsonschema.For[document](nil)
	if err != nil {
		panic(fmt.Sprintf("worldpack: building schema for document: %v", err))
	}
	packSchema = s
}

// Load reads and validates a world pack from path and builds its catalogs.
// Schema errors report the failing file's absolute path together with the
// JSON Pointer of the offending value, per the world pack error contract.
func Load(path string) (*Pack, error) {
	abs, err := resolveAbs(path)
	if err != nil {
		return nil, fmt.Errorf("worldpack: %w", err)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("worldpack: read %s: %w", abs, err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("worldpack: %s: invalid JSON: %w", abs, err)
	}

	resolved, err := packSchema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("worldpack: resolving schema: %w", err)
	}
	if err := resolved.Validate(generic); err != nil {
		return nil, fmt.Errorf("worldpack: %s: %s", abs, describeValidationError(err))
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("worldpack: %s: %w", abs, err)
	}

	return newPack(doc)
}

func newPack(doc document) (*Pack, error) {
	lore, err := NewCatalog(doc.LoreEntries, func(e LoreEntry) string { return fmt.Sprintf("%d", e.UID) })
	if err != nil {
		return nil, fmt.Errorf("worldpack: lore_entries: %w", err)
	}
	regions, err := NewCatalog(doc.Regions, func(r Region) string { return r.ID })
	if err != nil {
		return nil, fmt.Errorf("worldpack: regions: %w", err)
	}
	locations, err := NewCatalog(doc.Locations, func(l Location) string { return l.ID })
	if err != nil {
		return nil, fmt.Errorf("worldpack: locations: %w", err)
	}
	npcs, err := NewCatalog(doc.NPCs, func(n NPC) string { return n.ID })
	if err != nil {
		return nil, fmt.Errorf("worldpack: npcs: %w", err)
	}

	for _, loc := range locations.All() {
		if loc.RegionID != "" {
			if _, ok := regions.Get(loc.RegionID); !ok {
				return nil, fmt.Errorf("worldpack: location %q references unknown region %q", loc.ID, loc.RegionID)
			}
		}
	}

	return &Pack{
		PlayerCharacter: doc.PlayerCharacter,
		Lore:            lore,
		Regions:         regions,
		Locations:       locations,
		NPCs:            npcs,
	}, nil
}

func describeValidationError(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	ptr := "/" + strings.Join(verr.InstanceLocation, "/")
	return fmt.Sprintf("%s: %s", ptr, verr.Error())
}

func resolveAbs(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty world pack path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}
