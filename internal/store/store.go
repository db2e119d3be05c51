package store

import (
	"sync"

	"hat-store/internal/models"
)

// Store is the authoritative in-memory state of one team's
// storefront: its catalog and its funds, flushed to the backing JSON
// documents after every mutation. A single mutex serializes every
// mutating operation so two near-simultaneous trades can never
// interleave a check with another trade's act.
type Store struct {
	mu      sync.Mutex
	catalog *Catalog
	ledger  *Ledger

	storagePath string
	fundsPath   string
}

// Open loads (or bootstraps) the catalog and funds documents.
func Open(storagePath, fundsPath string) (*Store, error) {
	catalog, err := loadCatalog(storagePath)
	if err != nil {
		return nil, err
	}
	ledger, err := loadFunds(fundsPath)
	if err != nil {
		return nil, err
	}
	return &Store{
		catalog:     catalog,
		ledger:      ledger,
		storagePath: storagePath,
		fundsPath:   fundsPath,
	}, nil
}

// PurchaseResult describes a completed local sale.
type PurchaseResult struct {
	Hat        models.Hat
	TotalPrice int
	Remaining  int
	Removed    bool
	Funds      int
}

// Purchase sells qty units of the hat with the given id out of the
// local catalog and credits the ledger. The membership and stock
// checks happen under the same lock as the mutation, so at most one
// of two racing purchases of the last unit succeeds; the loser sees
// ErrNotFound or ErrInsufficientStock and no state changes.
func (s *Store) Purchase(id string, qty int) (PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hat, err := s.catalog.Get(id)
	if err != nil {
		return PurchaseResult{}, err
	}
	if qty > hat.Stock() {
		return PurchaseResult{Hat: hat}, ErrInsufficientStock
	}

	total := hat.Price * qty
	remaining := hat.Stock() - qty
	if remaining == 0 {
		s.catalog.Remove(id)
	} else {
		updated := hat
		updated.Quantity = remaining
		s.catalog.set(id, updated)
	}
	s.ledger.Credit(total)

	if err := s.persistLocked(); err != nil {
		return PurchaseResult{}, err
	}

	hat.ID = id
	return PurchaseResult{
		Hat:        hat,
		TotalPrice: total,
		Remaining:  remaining,
		Removed:    remaining == 0,
		Funds:      s.ledger.Balance(),
	}, nil
}

// SellListing transfers an entire listing to the counterpart: the hat
// is removed and the listing price credited. Used for
// counterpart-initiated purchases, where the listing moves as a unit.
func (s *Store) SellListing(id string) (models.Hat, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hat, err := s.catalog.Remove(id)
	if err != nil {
		return models.Hat{}, s.ledger.Balance(), err
	}
	s.ledger.Credit(hat.Price)

	if err := s.persistLocked(); err != nil {
		return models.Hat{}, s.ledger.Balance(), err
	}
	hat.ID = id
	return hat, s.ledger.Balance(), nil
}

// Acquire debits cost from the ledger and inserts hat under a fresh
// id. The funds check precedes any mutation; on
// ErrInsufficientFunds nothing has changed.
func (s *Store) Acquire(hat models.Hat, cost int) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ledger.Debit(cost); err != nil {
		return "", s.ledger.Balance(), err
	}
	hat.ID = "" // ids never travel between stores
	id := s.catalog.Add(hat)

	if err := s.persistLocked(); err != nil {
		return "", s.ledger.Balance(), err
	}
	return id, s.ledger.Balance(), nil
}

// AddProduct inserts a hat without touching funds.
func (s *Store) AddProduct(hat models.Hat) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hat.ID = ""
	id := s.catalog.Add(hat)
	if err := s.persistLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Restock raises the stock of an existing hat by qty. An unknown id
// is reported as found=false with no state change; webhook callers
// treat that as a silent no-op.
func (s *Store) Restock(id string, qty int) (models.Hat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hat, err := s.catalog.Get(id)
	if err != nil {
		return models.Hat{}, false, nil
	}
	hat.Quantity = hat.Stock() + qty
	s.catalog.set(id, hat)

	if err := s.persistLocked(); err != nil {
		return models.Hat{}, true, err
	}
	hat.ID = id
	return hat, true, nil
}

// Get returns the hat for id with its id filled in.
func (s *Store) Get(id string) (models.Hat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hat, err := s.catalog.Get(id)
	if err != nil {
		return models.Hat{}, err
	}
	hat.ID = id
	return hat, nil
}

// List returns the catalog in insertion order.
func (s *Store) List() []models.Hat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.List()
}

// Snapshot returns the id-keyed catalog map and the current balance.
func (s *Store) Snapshot() (map[string]models.Hat, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Items(), s.ledger.Balance()
}

func (s *Store) Funds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance()
}

func (s *Store) persistLocked() error {
	if err := saveCatalog(s.storagePath, s.catalog); err != nil {
		return err
	}
	return saveFunds(s.fundsPath, s.ledger)
}
