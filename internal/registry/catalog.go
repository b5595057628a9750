// Package registry is the catalog of classes the offline event layer can
// discover and instantiate.
//
// Go cannot load types by name at runtime, so every event and listener type
// registers a zero-argument factory under a stable class id, usually from an
// init func in its own package. The location groups classes the way source
// directories do; discovery scans a configured set of locations.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Factory builds a fresh, side-effect free instance of a class.
type Factory func() any

// Class is one catalog entry.
type Class struct {
	ID       string
	Location string
	New      Factory
}

// Catalog maps class ids to factories. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]Class
}

func NewCatalog() *Catalog {
	return &Catalog{classes: make(map[string]Class)}
}

// Register adds a class. Ids are unique across locations.
func (c *Catalog) Register(location, id string, f Factory) error {
	if id == "" {
		return fmt.Errorf("register class: empty id")
	}
	if f == nil {
		return fmt.Errorf("register class %q: nil factory", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.classes[id]; ok {
		return fmt.Errorf("register class %q: already registered in %q", id, prev.Location)
	}
	c.classes[id] = Class{ID: id, Location: location, New: f}
	return nil
}

// MustRegister is Register for init funcs; it panics on error.
func (c *Catalog) MustRegister(location, id string, f Factory) {
	if err := c.Register(location, id, f); err != nil {
		panic(err)
	}
}

func (c *Catalog) Lookup(id string) (Class, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cls, ok := c.classes[id]
	return cls, ok
}

// Classes returns the classes inside the given locations, sorted by id. A
// location also covers its sub-locations ("shop" covers "shop/orders"). No
// locations means every class.
func (c *Catalog) Classes(locations ...string) []Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Class
	for _, cls := range c.classes {
		if inLocations(cls.Location, locations) {
			out = append(out, cls)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns every registered id, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.classes))
	for id := range c.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Locations returns the distinct locations, sorted.
func (c *Catalog) Locations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, cls := range c.classes {
		seen[cls.Location] = struct{}{}
	}
	locs := make([]string, 0, len(seen))
	for l := range seen {
		locs = append(locs, l)
	}
	sort.Strings(locs)
	return locs
}

// Suggest returns up to three registered ids close to id, nearest first.
func (c *Catalog) Suggest(id string) []string {
	type cand struct {
		id   string
		dist int
	}
	limit := len(id)/3 + 1
	var cands []cand
	for _, known := range c.IDs() {
		if d := levenshtein.ComputeDistance(strings.ToLower(id), strings.ToLower(known)); d <= limit {
			cands = append(cands, cand{id: known, dist: d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > 3 {
		cands = cands[:3]
	}
	out := make([]string, len(cands))
	for i, cd := range cands {
		out[i] = cd.id
	}
	return out
}

func inLocations(loc string, locations []string) bool {
	if len(locations) == 0 {
		return true
	}
	for _, l := range locations {
		if loc == l || strings.HasPrefix(loc, l+"/") {
			return true
		}
	}
	return false
}

// Default is the catalog built-in classes register into.
var Default = NewCatalog()

// Register adds a class to Default and panics on conflicts.
func Register(location, id string, f Factory) { Default.MustRegister(location, id, f) }
