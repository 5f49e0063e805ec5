package market

import (
	"sort"
	"strings"

	"github.com/aristath/flipper/internal/domain"
)

// CatalogEntry is one known item.
type CatalogEntry struct {
	ID   domain.ItemID `json:"id"`
	Name string        `json:"name"`
}

// Catalog maps lowercased display names and ids to canonical item ids.
// It is read-only after construction.
type Catalog struct {
	entries []CatalogEntry
	byName  map[string]domain.ItemID
	byID    map[string]domain.ItemID
	names   []string
}

// NewCatalog indexes entries. When several items share a display name the
// last one wins.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		byName:  make(map[string]domain.ItemID, len(entries)),
		byID:    make(map[string]domain.ItemID, len(entries)),
	}

	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		c.entries = append(c.entries, e)
		c.byID[strings.ToLower(e.ID.String())] = e.ID

		name := normalizeName(e.Name)
		if name == "" {
			continue
		}
		if _, exists := c.byName[name]; !exists {
			c.names = append(c.names, name)
		}
		c.byName[name] = e.ID
	}
	sort.Strings(c.names)

	return c
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the indexed entries.
func (c *Catalog) Entries() []CatalogEntry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Names returns the lowercased display names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return c.names
}

// LookupName returns the id for an exact (lowercased) display name.
func (c *Catalog) LookupName(name string) (domain.ItemID, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.byName[normalizeName(name)]
	return id, ok
}

// LookupID returns the canonical id for a case-insensitive id.
func (c *Catalog) LookupID(raw string) (domain.ItemID, bool) {
	if c == nil {
		return "", false
	}
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"))
	id, ok := c.byID[key]
	return id, ok
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
