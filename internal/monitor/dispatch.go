package monitor

import (
	"time"

	"go.uber.org/zap"

	"github.com/denwilliams/pricetracker/internal/domain"
)

var notifyTitles = map[string]string{
	domain.NotifyPriceDrop:     "Price drop",
	domain.NotifyTargetReached: "Target price reached",
	domain.NotifyBackInStock:   "Back in stock",
	domain.NotifyOutOfStock:    "Out of stock",
}

// DispatchPending delivers a bounded batch of queued notifications, oldest
// first. Each event gets exactly one delivery attempt; a failed delivery is
// logged and the event is still marked sent so the backlog cannot grow
// without bound.
func (s *Service) DispatchPending() {
	batch := s.cfg.Monitor.BatchSize
	if s.settings != nil {
		if b := s.settings.GetInt("scheduler", "notify_batch_size"); b > 0 {
			batch = b
		}
	}
	if batch <= 0 {
		batch = 20
	}

	var events []domain.NotificationEvent
	if err := s.db.Where("sent = ?", false).
		Order("created_at asc").
		Limit(batch).
		Find(&events).Error; err != nil {
		zap.L().Error("failed to load pending notifications", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	delivered := 0
	for _, ev := range events {
		title, ok := notifyTitles[ev.Type]
		if !ok {
			title = "Price tracker"
		}
		priority := 0
		if ev.Type == domain.NotifyTargetReached {
			priority = 1
		}

		if s.notifier.Deliver(ev.Message, title, priority) {
			delivered++
		} else {
			zap.L().Warn("notification delivery failed, not retried",
				zap.Int64("id", ev.ID),
				zap.String("type", ev.Type))
		}

		now := time.Now()
		if err := s.db.Model(&domain.NotificationEvent{}).
			Where("id = ?", ev.ID).
			Updates(map[string]interface{}{"sent": true, "sent_at": now}).Error; err != nil {
			zap.L().Error("failed to mark notification sent",
				zap.Int64("id", ev.ID), zap.Error(err))
		}
	}

	zap.L().Info("notification dispatch completed",
		zap.Int("batch", len(events)),
		zap.Int("delivered", delivered))
}
