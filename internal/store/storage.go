package store

import (
	"encoding/json"
	"fmt"
	"os"

	"hat-store/internal/models"
)

// Persisted layout: the catalog file is an id-keyed object, the funds
// file is {"funds": n}. Both are read fully and rewritten fully on
// every access.

const defaultFunds = 500

type fundsDocument struct {
	Funds int `json:"funds"`
}

// defaultCatalog is the bootstrap stock a brand-new store opens with.
func defaultCatalog() *Catalog {
	c := NewCatalog()
	c.Add(models.Hat{Name: "Team Captain", Price: 150, Image: "Team_Captain.png"})
	c.Add(models.Hat{Name: "Gibus", Price: 10, Image: "Ghostly_Gibus.png"})
	return c
}

// loadCatalog reads the catalog file. A missing file is bootstrap,
// not an error: the default catalog is written out and returned. Any
// other read or decode failure is surfaced so a broken file is never
// mistaken for an empty store.
func loadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c := defaultCatalog()
		if err := saveCatalog(path, c); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var hats map[string]models.Hat
	if err := json.Unmarshal(raw, &hats); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return newCatalogFrom(hats), nil
}

func saveCatalog(path string, c *Catalog) error {
	data, err := json.MarshalIndent(c.hats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}

func loadFunds(path string) (*Ledger, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		l := NewLedger(defaultFunds)
		if err := saveFunds(path, l); err != nil {
			return nil, err
		}
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read funds %s: %w", path, err)
	}

	var doc fundsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode funds %s: %w", path, err)
	}
	return NewLedger(doc.Funds), nil
}

func saveFunds(path string, l *Ledger) error {
	data, err := json.MarshalIndent(fundsDocument{Funds: l.Balance()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write funds %s: %w", path, err)
	}
	return nil
}
