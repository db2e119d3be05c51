package remote

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"hat-store/internal/models"
)

// CatalogSource fetches the partner's catalog.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (map[string]models.Hat, error)
}

// Broadcaster fans events out to connected observers.
type Broadcaster interface {
	Broadcast(event models.Event)
}

// Config holds poller timing.
type Config struct {
	Interval   time.Duration // scheduled poll interval
	RetryDelay time.Duration // rearm delay after a failed poll
	Timeout    time.Duration // per-fetch timeout
}

func DefaultConfig() Config {
	return Config{
		Interval:   30 * time.Second,
		RetryDelay: 5 * time.Second,
		Timeout:    10 * time.Second,
	}
}

// Poller refreshes the remote catalog cache on a schedule. A failed
// fetch is logged and retried after a fixed delay, forever; the poll
// loop never takes the process down.
type Poller struct {
	cfg     Config
	source  CatalogSource
	cache   *Cache
	hub     Broadcaster
	partner string

	cron    *cron.Cron
	stopped atomic.Bool
}

func NewPoller(cfg Config, source CatalogSource, cache *Cache, hub Broadcaster, partner string) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		cache:   cache,
		hub:     hub,
		partner: partner,
		cron:    cron.New(),
	}
}

// Start polls once immediately, then on the configured schedule.
func (p *Poller) Start() error {
	if _, err := p.cron.AddFunc("@every "+p.cfg.Interval.String(), p.Poll); err != nil {
		return err
	}
	go p.Poll()
	p.cron.Start()

	logrus.WithFields(logrus.Fields{
		"partner":  p.partner,
		"interval": p.cfg.Interval,
	}).Info("Remote sync poller started")
	return nil
}

// Stop halts the schedule and any pending retry.
func (p *Poller) Stop() {
	p.stopped.Store(true)
	p.cron.Stop()
}

// Poll fetches the partner catalog once. On success the cache is
// replaced wholesale and per-item add/remove events are broadcast for
// the diff; on failure the cache is left as-is and a retry is armed.
func (p *Poller) Poll() {
	if p.stopped.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	catalog, err := p.source.FetchCatalog(ctx)
	if err != nil {
		logrus.WithError(err).WithField("partner", p.partner).Warn("Partner catalog fetch failed, will retry")
		time.AfterFunc(p.cfg.RetryDelay, p.Poll)
		return
	}

	added, removed := p.cache.Replace(catalog)
	for id, hat := range added {
		item := hat
		p.hub.Broadcast(models.Event{
			Type: models.AddEvent(p.partner),
			ID:   id,
			Item: &item,
		})
	}
	for id, hat := range removed {
		p.hub.Broadcast(models.Event{
			Type:  models.RemoveEvent(p.partner),
			ID:    id,
			Price: hat.Price,
		})
	}

	if len(added)+len(removed) > 0 {
		logrus.WithFields(logrus.Fields{
			"partner": p.partner,
			"items":   len(catalog),
			"added":   len(added),
			"removed": len(removed),
		}).Info("Partner catalog refreshed")
	}
}
