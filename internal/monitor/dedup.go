package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gorm.io/gorm"

	"github.com/denwilliams/pricetracker/internal/domain"
	"github.com/denwilliams/pricetracker/pkg/common"
)

// evaluate converts one new observation into zero or more notification
// events. All conditions are edge-triggered: a price that merely stays below
// target, or stock that merely stays out, produces nothing.
func (s *Service) evaluate(m *domain.ProductMonitor, obs *domain.PriceObservation) []*domain.NotificationEvent {
	var events []*domain.NotificationEvent
	prior := m.CurrentPrice
	name := m.Name
	if name == "" {
		name = m.URL
	}

	if !obs.IsAvailable {
		if prior != nil {
			events = append(events, s.newEvent(m, domain.NotifyOutOfStock,
				fmt.Sprintf("%s is out of stock (last price %s)", name, formatPrice(*prior))))
		}
		// no price alerts for an unavailable reading
		return events
	}

	// restock: transition from "no current price" to available. The very
	// first check has no prior state, hence no transition.
	if prior == nil && m.LastChecked != nil {
		events = append(events, s.newEvent(m, domain.NotifyBackInStock,
			fmt.Sprintf("%s is back in stock at %s", name, formatPrice(obs.Price))))
	}

	if prior != nil && obs.Price < *prior {
		saving := *prior - obs.Price
		pct := saving / *prior * 100
		msg := fmt.Sprintf("Price drop: %s is now %s (was %s, save %s / %.1f%%)",
			name, formatPrice(obs.Price), formatPrice(*prior), formatPrice(saving), pct)
		if low, ok := s.recentLow(m.ID); ok && obs.Price <= low {
			msg += fmt.Sprintf(". Lowest price seen in the last %d days.", s.retentionDays())
		}
		events = append(events, s.newEvent(m, domain.NotifyPriceDrop, msg))
	}

	if m.TargetPrice != nil && obs.Price <= *m.TargetPrice && s.targetCrossed(m, obs) {
		events = append(events, s.newEvent(m, domain.NotifyTargetReached,
			fmt.Sprintf("Target reached: %s is now %s (target %s)",
				name, formatPrice(obs.Price), formatPrice(*m.TargetPrice))))
	}
	return events
}

// targetCrossed reports whether obs is a genuine threshold crossing. Two
// guards: the prior price must have been above target (or unknown), and if a
// target_reached alert was already sent, the price must have risen back above
// target at some point since. The history scan is bounded only by the
// retention horizon.
func (s *Service) targetCrossed(m *domain.ProductMonitor, obs *domain.PriceObservation) bool {
	target := *m.TargetPrice
	if m.CurrentPrice != nil && *m.CurrentPrice <= target {
		// already at/under target last cycle
		return false
	}

	var last domain.NotificationEvent
	err := s.db.Where("product_id = ? AND type = ?", m.ID, domain.NotifyTargetReached).
		Order("created_at desc").
		First(&last).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Warn("target history lookup failed",
				zap.Int64("product_id", m.ID), zap.Error(err))
		}
		return true
	}

	var rose int64
	s.db.Model(&domain.PriceObservation{}).
		Where("product_id = ? AND scraped_at > ? AND price > ?", m.ID, last.CreatedAt, target).
		Count(&rose)
	return rose > 0
}

func (s *Service) newEvent(m *domain.ProductMonitor, kind, msg string) *domain.NotificationEvent {
	return &domain.NotificationEvent{
		ID:        common.UUIDint64(),
		ProductID: m.ID,
		Type:      kind,
		Message:   msg + "\n" + m.URL,
	}
}

// recentLow returns the lowest observed price within the retention window.
func (s *Service) recentLow(productID int64) (float64, bool) {
	var prices []float64
	since := time.Now().AddDate(0, 0, -s.retentionDays())
	s.db.Model(&domain.PriceObservation{}).
		Where("product_id = ? AND scraped_at > ?", productID, since).
		Pluck("price", &prices)
	if len(prices) == 0 {
		return 0, false
	}
	low, err := stats.Min(prices)
	if err != nil {
		return 0, false
	}
	return low, true
}

func (s *Service) retentionDays() int {
	if d := s.cfg.Monitor.RetentionDays; d > 0 {
		return d
	}
	return 90
}

var pricePrinter = message.NewPrinter(language.English)

// formatPrice renders an amount with thousands separators, e.g. "$1,237.00".
func formatPrice(v float64) string {
	return pricePrinter.Sprintf("$%v",
		number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
