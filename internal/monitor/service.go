// Package monitor owns the check/notify lifecycle: it fans out per-product
// scrapes, appends observations, decides when a change is new information,
// and drains the pending notification queue.
package monitor

import (
	"context"
	"errors"
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/denwilliams/pricetracker/config"
	"github.com/denwilliams/pricetracker/internal/domain"
	"github.com/denwilliams/pricetracker/internal/notifier"
	"github.com/denwilliams/pricetracker/internal/scrape"
	"github.com/denwilliams/pricetracker/internal/urlnorm"
	"github.com/denwilliams/pricetracker/pkg/common"
)

// Bus topics published by the service.
const (
	TopicCheckCompleted      = "monitor:check_completed"
	TopicNotificationCreated = "monitor:notification_created"
)

// PageScraper abstracts the scrape orchestrator so tests can substitute stubs.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string, opts scrape.Options) scrape.Result
}

// SettingsReader exposes runtime tunables stored in sys_config. A nil reader
// leaves the config-file values in effect.
type SettingsReader interface {
	GetInt(category, name string) int
}

// Service runs the monitoring lifecycle against the persistent store.
type Service struct {
	db       *gorm.DB
	cfg      *config.AppConfig
	scraper  PageScraper
	notifier notifier.Notifier
	bus      EventBus.Bus
	pool     *ants.Pool
	settings SettingsReader
}

func NewService(db *gorm.DB, cfg *config.AppConfig, scraper PageScraper, n notifier.Notifier, bus EventBus.Bus) (*Service, error) {
	workers := cfg.Monitor.MaxWorkers
	if workers <= 0 {
		workers = 5
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create worker pool")
	}
	if bus == nil {
		bus = EventBus.New()
	}
	return &Service{db: db, cfg: cfg, scraper: scraper, notifier: n, bus: bus, pool: pool}, nil
}

// Bus exposes the event bus for subscribers (metrics, logging).
func (s *Service) Bus() EventBus.Bus { return s.bus }

// SetSettings attaches the runtime settings source.
func (s *Service) SetSettings(r SettingsReader) { s.settings = r }

// Stop releases the worker pool. In-flight checks are allowed to finish.
func (s *Service) Stop() {
	s.pool.Release()
}

// Track registers (or reactivates) a monitor for rawURL. The URL is
// canonicalized first so the same product shared through different links maps
// onto one monitor row.
func (s *Service) Track(rawURL string, targetPrice *float64, selector string) (*domain.ProductMonitor, error) {
	canonical, ref, err := urlnorm.Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}
	if err := scrape.ValidateSelector(selector); err != nil {
		return nil, err
	}

	var m domain.ProductMonitor
	err = s.db.Where("url = ?", canonical).First(&m).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"is_active": true}
		if targetPrice != nil {
			updates["target_price"] = *targetPrice
		}
		if selector != "" {
			updates["selector"] = selector
		}
		if err := s.db.Model(&domain.ProductMonitor{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "reactivate monitor")
		}
		if err := s.db.First(&m, m.ID).Error; err != nil {
			return nil, err
		}
		zap.L().Info("monitor reactivated", zap.Int64("product_id", m.ID), zap.String("url", canonical))
		return &m, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = domain.ProductMonitor{
			ID:          common.UUIDint64(),
			URL:         canonical,
			Store:       ref.Store,
			ProductKey:  ref.ProductID,
			Selector:    selector,
			TargetPrice: targetPrice,
			IsActive:    true,
		}
		if err := s.db.Create(&m).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "create monitor")
		}
		zap.L().Info("monitor created",
			zap.Int64("product_id", m.ID),
			zap.String("store", m.Store),
			zap.String("url", canonical))
		return &m, nil
	default:
		return nil, err
	}
}

// Suspend flips a monitor inactive, preserving its history.
func (s *Service) Suspend(productID int64) error {
	return s.db.Model(&domain.ProductMonitor{}).
		Where("id = ?", productID).
		Update("is_active", false).Error
}

// PurgeObservations deletes observations older than the retention horizon.
// Safe to re-run; a second pass with no new data deletes nothing.
func (s *Service) PurgeObservations() int64 {
	days := s.cfg.Monitor.RetentionDays
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	ret := s.db.Where("scraped_at < ?", cutoff).Delete(&domain.PriceObservation{})
	if ret.Error != nil {
		zap.L().Error("observation purge failed", zap.Error(ret.Error))
		return 0
	}
	if ret.RowsAffected > 0 {
		zap.L().Info("purged old observations",
			zap.Int64("rows", ret.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return ret.RowsAffected
}
