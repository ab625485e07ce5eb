package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/denwilliams/pricetracker/internal/domain"
	"github.com/denwilliams/pricetracker/internal/scrape"
	"github.com/denwilliams/pricetracker/pkg/common"
)

// CheckAll runs one price-check tick: every active monitor is checked
// concurrently with per-monitor failure isolation, and the tick completes
// only when all checks have settled.
func (s *Service) CheckAll(ctx context.Context) (succeeded, failed int) {
	var monitors []domain.ProductMonitor
	if err := s.db.Where("is_active = ?", true).Find(&monitors).Error; err != nil {
		zap.L().Error("failed to load active monitors", zap.Error(err))
		return
	}
	if len(monitors) == 0 {
		return
	}

	var wg sync.WaitGroup
	var okCount, failCount int64
	for i := range monitors {
		m := monitors[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&failCount, 1)
					zap.L().Error("monitor check panic",
						zap.Int64("product_id", m.ID),
						zap.Any("panic", r))
				}
			}()
			if err := s.CheckMonitor(ctx, &m); err != nil {
				atomic.AddInt64(&failCount, 1)
				zap.L().Warn("monitor check failed",
					zap.Int64("product_id", m.ID),
					zap.String("url", m.URL),
					zap.Error(err))
				return
			}
			atomic.AddInt64(&okCount, 1)
		}
		if err := s.pool.Submit(task); err != nil {
			// pool released or saturated beyond capacity: run inline rather
			// than dropping the monitor for this tick
			task()
		}
	}
	wg.Wait()

	succeeded, failed = int(okCount), int(failCount)
	zap.L().Info("price check tick completed",
		zap.Int("monitors", len(monitors)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed))
	s.bus.Publish(TopicCheckCompleted, succeeded, failed)
	return succeeded, failed
}

// CheckMonitor scrapes one monitor and records the observation. A scrape that
// yields no price leaves the monitor untouched; the next tick is the retry.
func (s *Service) CheckMonitor(ctx context.Context, m *domain.ProductMonitor) error {
	res := s.scraper.Scrape(ctx, m.URL, scrape.Options{
		Store:            m.Store,
		SelectorOverride: m.Selector,
		DefaultCurrency:  s.cfg.Monitor.DefaultCurrency,
		Retailers:        s.cfg.Retailers,
	})
	if res.Price == nil {
		return pkgerrors.New(res.Error)
	}
	return s.record(m, res, time.Now())
}

// CheckNow runs an immediate check for a single monitor by ID.
func (s *Service) CheckNow(ctx context.Context, productID int64) error {
	var m domain.ProductMonitor
	if err := s.db.First(&m, productID).Error; err != nil {
		return err
	}
	return s.CheckMonitor(ctx, &m)
}

// record appends the observation, runs the dedup state machine, then updates
// the monitor's current view. current_price doubles as the availability
// marker: an unavailable reading clears it so the next available one
// edge-triggers a restock alert.
func (s *Service) record(m *domain.ProductMonitor, res scrape.Result, now time.Time) error {
	obs := &domain.PriceObservation{
		ID:          common.UUIDint64(),
		ProductID:   m.ID,
		Price:       *res.Price,
		Currency:    res.Currency,
		IsAvailable: res.Available,
		ScrapedAt:   now,
	}
	if err := s.db.Create(obs).Error; err != nil {
		return pkgerrors.Wrap(err, "persist observation")
	}

	for _, ev := range s.evaluate(m, obs) {
		if err := s.db.Create(ev).Error; err != nil {
			zap.L().Error("failed to persist notification",
				zap.Int64("product_id", m.ID),
				zap.String("type", ev.Type),
				zap.Error(err))
			continue
		}
		zap.L().Info("notification queued",
			zap.Int64("product_id", m.ID),
			zap.String("type", ev.Type))
		s.bus.Publish(TopicNotificationCreated, ev.Type)
	}

	updates := map[string]interface{}{"last_checked": now}
	if res.Available {
		updates["current_price"] = obs.Price
	} else {
		updates["current_price"] = nil
	}
	if m.Name == "" && res.Name != "" {
		updates["name"] = res.Name
	}
	if m.ImageURL == "" && res.ImageURL != "" {
		updates["image_url"] = res.ImageURL
	}
	if err := s.db.Model(&domain.ProductMonitor{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
		return pkgerrors.Wrap(err, "update monitor")
	}
	return nil
}
