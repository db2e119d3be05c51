package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hat-store/internal/models"
	"hat-store/internal/store"
)

// resaleMarkup is the flat price increase applied every time a hat
// changes ownership between the two stores, in either direction.
const resaleMarkup = 1

// Broadcaster fans events out to connected observers.
type Broadcaster interface {
	Broadcast(event models.Event)
}

// PartnerClient is the HTTP surface of the counterpart store.
type PartnerClient interface {
	Purchase(ctx context.Context, id string) (models.Hat, error)
	Notify(ctx context.Context, event models.WebhookEvent) error
}

// RemoteCache is the last-known view of the partner's catalog. It is
// consulted for pre-checks only; the partner's own store stays
// authoritative for whether an item still exists.
type RemoteCache interface {
	Get(id string) (models.Hat, bool)
	Evict(id string)
}

// Service implements the trade protocol: local sales, counterpart
// purchases, and cross-store acquisitions. Every trade commits
// locally first; partner notification is best-effort and a partner
// failure after a local commit is never rolled back. Drift between
// the two stores is reconciled by the next poll.
type Service struct {
	store       *store.Store
	db          *gorm.DB
	partner     PartnerClient
	remote      RemoteCache
	hub         Broadcaster
	team        string
	partnerName string
}

func NewService(s *store.Store, db *gorm.DB, partner PartnerClient, remote RemoteCache, hub Broadcaster, team, partnerName string) *Service {
	return &Service{
		store:       s,
		db:          db,
		partner:     partner,
		remote:      remote,
		hub:         hub,
		team:        team,
		partnerName: partnerName,
	}
}

// BuyResult describes a completed local purchase for the REST layer.
type BuyResult struct {
	Hat        models.Hat
	Quantity   int
	TotalPrice int
	Remaining  int
	Removed    bool
	Funds      int
}

// Buy sells qty units of a local hat to buyer. Validation and the
// stock check happen before any mutation; on success the catalog and
// ledger are flushed, a transaction is recorded, and a purchase
// event is broadcast.
func (t *Service) Buy(hatID string, qty int, buyer string) (BuyResult, error) {
	res, err := t.store.Purchase(hatID, qty)
	if err != nil {
		return BuyResult{Hat: res.Hat}, err
	}

	t.record(models.Transaction{
		HatID:       hatID,
		HatName:     res.Hat.Name,
		Quantity:    qty,
		TotalPrice:  res.TotalPrice,
		Direction:   models.DirectionSale,
		Counterpart: buyer,
	})

	funds := res.Funds
	t.hub.Broadcast(models.Event{
		Type:  models.EventPurchase,
		Funds: &funds,
		Data: map[string]interface{}{
			"hat":        res.Hat.Name,
			"hatId":      hatID,
			"buyer":      buyer,
			"quantity":   qty,
			"totalPrice": res.TotalPrice,
			"remaining":  res.Remaining,
		},
	})

	return BuyResult{
		Hat:        res.Hat,
		Quantity:   qty,
		TotalPrice: res.TotalPrice,
		Remaining:  res.Remaining,
		Removed:    res.Removed,
		Funds:      res.Funds,
	}, nil
}

// PartnerBuy handles a counterpart-initiated purchase of a local
// listing. An unknown id mutates nothing and reports
// store.ErrNotFound; the counterpart treats that as a no-op.
func (t *Service) PartnerBuy(id string) (models.Hat, error) {
	hat, funds, err := t.store.SellListing(id)
	if err != nil {
		return models.Hat{}, err
	}

	t.record(models.Transaction{
		HatID:       id,
		HatName:     hat.Name,
		Quantity:    hat.Stock(),
		TotalPrice:  hat.Price,
		Direction:   models.DirectionSale,
		Counterpart: t.partnerName,
	})

	t.hub.Broadcast(models.Event{
		Type:  models.RemoveEvent(t.team),
		ID:    id,
		Price: hat.Price,
		Funds: &funds,
	})

	logrus.WithFields(logrus.Fields{
		"id":    id,
		"hat":   hat.Name,
		"price": hat.Price,
	}).Info("Listing sold to partner")
	return hat, nil
}

// Sell accepts a hat offered to this store: the asking price is
// debited (check-then-act, nothing moves on insufficient funds) and
// the hat enters the catalog at the resale markup.
func (t *Service) Sell(name string, price int, image string) (string, models.Hat, error) {
	hat := models.Hat{
		Name:  name,
		Price: price + resaleMarkup,
		Image: image,
	}

	id, funds, err := t.store.Acquire(hat, price)
	if err != nil {
		return "", models.Hat{}, err
	}

	t.record(models.Transaction{
		HatID:       id,
		HatName:     name,
		Quantity:    1,
		TotalPrice:  price,
		Direction:   models.DirectionAcquisition,
		Counterpart: t.partnerName,
	})

	item := hat
	item.ID = id
	t.hub.Broadcast(models.Event{
		Type:  models.AddEvent(t.team),
		ID:    id,
		Item:  &item,
		Funds: &funds,
	})
	t.notifyPartner(models.WebhookEvent{
		Type:   models.EventNewProduct,
		Item:   &item,
		Source: t.team,
	})

	return id, item, nil
}

// BuyFromPartner executes the cross-store trade for an item the
// partner holds. The cached view only gates the attempt; the partner
// decides whether the item still exists. Once the partner confirms
// the sale, the local acquisition commits regardless of any later
// failure.
func (t *Service) BuyFromPartner(id string) error {
	cached, ok := t.remote.Get(id)
	if !ok {
		return fmt.Errorf("remote %s: %w", id, store.ErrNotFound)
	}
	if cached.Price > t.store.Funds() {
		return fmt.Errorf("remote %s at %d: %w", id, cached.Price, store.ErrInsufficientFunds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hat, err := t.partner.Purchase(ctx, id)
	if err != nil {
		// Stale cache entry: the partner no longer has it.
		if errors.Is(err, store.ErrNotFound) {
			t.remote.Evict(id)
		}
		return fmt.Errorf("partner purchase %s: %w", id, err)
	}

	localID, funds, err := t.store.Acquire(models.Hat{
		Name:  hat.Name,
		Price: hat.Price + resaleMarkup,
		Image: hat.Image,
	}, hat.Price)
	if err != nil {
		// Partner already sold; this store missed the goods. Known
		// consistency gap, reconciled by the next poll.
		logrus.WithError(err).WithField("id", id).Error("Local acquisition failed after partner sale")
		return err
	}

	t.record(models.Transaction{
		HatID:       localID,
		HatName:     hat.Name,
		Quantity:    1,
		TotalPrice:  hat.Price,
		Direction:   models.DirectionAcquisition,
		Counterpart: t.partnerName,
	})

	item := models.Hat{ID: localID, Name: hat.Name, Price: hat.Price + resaleMarkup, Image: hat.Image}
	t.hub.Broadcast(models.Event{
		Type:  models.AddEvent(t.team),
		ID:    localID,
		Item:  &item,
		Funds: &funds,
	})

	t.remote.Evict(id)
	t.hub.Broadcast(models.Event{
		Type:  models.RemoveEvent(t.partnerName),
		ID:    id,
		Price: hat.Price,
	})

	logrus.WithFields(logrus.Fields{
		"id":    id,
		"hat":   hat.Name,
		"price": hat.Price,
	}).Info("Hat acquired from partner")
	return nil
}

// HandleWebhook applies a partner-pushed side effect. Unknown items
// and unknown types are silent no-ops; webhook delivery always
// succeeds from the sender's point of view.
func (t *Service) HandleWebhook(event models.WebhookEvent, source string) {
	switch event.Type {
	case models.EventRestock:
		qty := event.Quantity
		if qty <= 0 {
			qty = 1
		}
		hat, found, err := t.store.Restock(event.HatID.String(), qty)
		if err != nil {
			logrus.WithError(err).Warn("Restock persist failed")
			return
		}
		if !found {
			logrus.WithField("hatId", event.HatID).Debug("Restock for unknown hat ignored")
			return
		}
		t.hub.Broadcast(models.Event{
			Type: models.EventRestock,
			ID:   hat.ID,
			Item: &hat,
			Data: map[string]interface{}{
				"hat":           hat.Name,
				"addedQuantity": qty,
				"source":        source,
			},
		})

	case models.EventNewProduct:
		if event.Item == nil {
			return
		}
		id, err := t.store.AddProduct(*event.Item)
		if err != nil {
			logrus.WithError(err).Warn("New product persist failed")
			return
		}
		item := *event.Item
		item.ID = id
		t.hub.Broadcast(models.Event{
			Type: models.EventNewProduct,
			ID:   id,
			Item: &item,
			Data: map[string]interface{}{
				"hat":    item.Name,
				"source": source,
			},
		})

	default:
		logrus.WithField("type", event.Type).Debug("Unknown webhook event ignored")
	}
}

// Transactions returns the newest entries of the append-only log.
func (t *Service) Transactions(limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var transactions []models.Transaction
	err := t.db.Order("created_at DESC").Limit(limit).Find(&transactions).Error
	return transactions, err
}

// record appends to the audit log. The trade is already committed, so
// an audit write failure is logged, never propagated.
func (t *Service) record(tx models.Transaction) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now()
	if err := t.db.Create(&tx).Error; err != nil {
		logrus.WithError(err).Warn("Failed to record transaction")
	}
}

// notifyPartner delivers a best-effort webhook; failures are logged
// and swallowed.
func (t *Service) notifyPartner(event models.WebhookEvent) {
	if t.partner == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.partner.Notify(ctx, event); err != nil {
			logrus.WithError(err).Warn("Partner webhook notify failed")
		}
	}()
}
