package store

import (
	"sort"

	"github.com/google/uuid"

	"hat-store/internal/models"
)

// Catalog maps hat ids to hats and remembers insertion order for
// listing. Ids are random unique tokens (uuid v4). Not safe for
// concurrent use on its own; Store serializes access.
type Catalog struct {
	hats  map[string]models.Hat
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{hats: make(map[string]models.Hat)}
}

// newCatalogFrom rebuilds a catalog from a persisted id-keyed map.
// Persisted JSON has no order, so ids are sorted for a stable listing.
func newCatalogFrom(hats map[string]models.Hat) *Catalog {
	c := &Catalog{hats: make(map[string]models.Hat, len(hats))}
	for id, hat := range hats {
		c.hats[id] = hat
		c.order = append(c.order, id)
	}
	sort.Strings(c.order)
	return c
}

// Add inserts a hat under a fresh id and returns the id.
func (c *Catalog) Add(hat models.Hat) string {
	id := uuid.NewString()
	c.hats[id] = hat
	c.order = append(c.order, id)
	return id
}

// Get returns the hat for id, or ErrNotFound.
func (c *Catalog) Get(id string) (models.Hat, error) {
	hat, ok := c.hats[id]
	if !ok {
		return models.Hat{}, ErrNotFound
	}
	return hat, nil
}

// Remove deletes and returns the hat for id, or ErrNotFound if the
// id is unknown (including an id already removed).
func (c *Catalog) Remove(id string) (models.Hat, error) {
	hat, ok := c.hats[id]
	if !ok {
		return models.Hat{}, ErrNotFound
	}
	delete(c.hats, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return hat, nil
}

// List returns all hats in insertion order with ids filled in.
func (c *Catalog) List() []models.Hat {
	out := make([]models.Hat, 0, len(c.order))
	for _, id := range c.order {
		hat := c.hats[id]
		hat.ID = id
		out = append(out, hat)
	}
	return out
}

// Items returns a copy of the id-keyed map.
func (c *Catalog) Items() map[string]models.Hat {
	out := make(map[string]models.Hat, len(c.hats))
	for id, hat := range c.hats {
		out[id] = hat
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.hats)
}

// set replaces the hat stored under an existing id.
func (c *Catalog) set(id string, hat models.Hat) {
	c.hats[id] = hat
}
