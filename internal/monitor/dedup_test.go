package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/denwilliams/pricetracker/config"
	"github.com/denwilliams/pricetracker/internal/domain"
	"github.com/denwilliams/pricetracker/internal/scrape"
)

type stubScraper struct {
	res scrape.Result
}

func (s *stubScraper) Scrape(_ context.Context, _ string, _ scrape.Options) scrape.Result {
	return s.res
}

type stubNotifier struct {
	ok        bool
	delivered []string
}

func (n *stubNotifier) Deliver(message, title string, priority int) bool {
	n.delivered = append(n.delivered, title)
	return n.ok
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	cfg := *config.DefaultAppConfig
	cfg.Monitor.MaxWorkers = 2

	svc, err := NewService(db, &cfg, &stubScraper{}, &stubNotifier{ok: true}, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Stop)
	return svc
}

func trackFixture(t *testing.T, svc *Service, target *float64) *domain.ProductMonitor {
	t.Helper()
	m, err := svc.Track("https://www.jbhifi.com.au/products/test-widget", target, "")
	require.NoError(t, err)
	return m
}

// observe drives one check result through the recording path, reloading the
// monitor first so its current view matches the database.
func observe(t *testing.T, svc *Service, id int64, price float64, available bool, at time.Time) {
	t.Helper()
	var m domain.ProductMonitor
	require.NoError(t, svc.db.First(&m, id).Error)
	p := price
	res := scrape.Result{Price: &p, Currency: "AUD", Available: available}
	require.NoError(t, svc.record(&m, res, at))
}

func eventsOf(t *testing.T, svc *Service, id int64, kind string) []domain.NotificationEvent {
	t.Helper()
	var events []domain.NotificationEvent
	require.NoError(t, svc.db.
		Where("product_id = ? AND type = ?", id, kind).
		Order("created_at asc").
		Find(&events).Error)
	return events
}

func fptr(v float64) *float64 { return &v }

func TestPriceDropEvent(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, nil)
	base := time.Now()

	observe(t, svc, m.ID, 100, true, base)
	observe(t, svc, m.ID, 80, true, base.Add(time.Minute))

	drops := eventsOf(t, svc, m.ID, domain.NotifyPriceDrop)
	require.Len(t, drops, 1)
	assert.Contains(t, drops[0].Message, "$80.00")
	assert.Contains(t, drops[0].Message, "$100.00")
	assert.Contains(t, drops[0].Message, "20.0%")
	assert.Contains(t, drops[0].Message, m.URL)
	// 80 is also the lowest price in the window
	assert.Contains(t, drops[0].Message, "Lowest price")
}

func TestNoEventOnRiseOrEqual(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, nil)
	base := time.Now()

	observe(t, svc, m.ID, 80, true, base)
	observe(t, svc, m.ID, 90, true, base.Add(time.Minute))
	observe(t, svc, m.ID, 90, true, base.Add(2*time.Minute))

	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyPriceDrop))
}

func TestTargetReachedOnceWhileBelow(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, fptr(100))
	base := time.Now()

	for i, price := range []float64{150, 90, 95, 80} {
		observe(t, svc, m.ID, price, true, base.Add(time.Duration(i)*time.Minute))
	}

	// only the 150 -> 90 crossing alerts; 95 and 80 stay below target
	events := eventsOf(t, svc, m.ID, domain.NotifyTargetReached)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "$90.00")
	assert.Contains(t, events[0].Message, "target $100.00")
}

func TestTargetReachedAgainAfterRise(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, fptr(100))
	base := time.Now()

	for i, price := range []float64{150, 90, 120, 80} {
		observe(t, svc, m.ID, price, true, base.Add(time.Duration(i)*time.Minute))
	}

	// the rise to 120 re-arms the target alert
	events := eventsOf(t, svc, m.ID, domain.NotifyTargetReached)
	require.Len(t, events, 2)
	assert.Contains(t, events[1].Message, "$80.00")
}

func TestTargetFirstCheckBelowTarget(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, fptr(100))

	observe(t, svc, m.ID, 90, true, time.Now())

	// prior price unknown counts as a crossing
	assert.Len(t, eventsOf(t, svc, m.ID, domain.NotifyTargetReached), 1)
}

func TestStockFlipEvents(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, nil)
	base := time.Now()

	observe(t, svc, m.ID, 150, true, base)
	observe(t, svc, m.ID, 150, false, base.Add(time.Minute))
	observe(t, svc, m.ID, 140, true, base.Add(2*time.Minute))

	outs := eventsOf(t, svc, m.ID, domain.NotifyOutOfStock)
	require.Len(t, outs, 1)
	assert.Contains(t, outs[0].Message, "out of stock")

	backs := eventsOf(t, svc, m.ID, domain.NotifyBackInStock)
	require.Len(t, backs, 1)
	assert.Contains(t, backs[0].Message, "$140.00")

	var reloaded domain.ProductMonitor
	require.NoError(t, svc.db.First(&reloaded, m.ID).Error)
	require.NotNil(t, reloaded.CurrentPrice)
	assert.Equal(t, 140.0, *reloaded.CurrentPrice)
}

func TestFirstCheckEmitsNoStockEvent(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, nil)

	observe(t, svc, m.ID, 150, true, time.Now())

	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyBackInStock))
	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyOutOfStock))
}

func TestUnavailableSuppressesPriceAlerts(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, fptr(100))
	base := time.Now()

	observe(t, svc, m.ID, 150, true, base)
	// a bargain reading on an unavailable product is not actionable
	observe(t, svc, m.ID, 50, false, base.Add(time.Minute))

	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyPriceDrop))
	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyTargetReached))
	assert.Len(t, eventsOf(t, svc, m.ID, domain.NotifyOutOfStock), 1)

	var reloaded domain.ProductMonitor
	require.NoError(t, svc.db.First(&reloaded, m.ID).Error)
	assert.Nil(t, reloaded.CurrentPrice)
}

func TestUnavailableWhileOutEmitsNothing(t *testing.T) {
	svc := newTestService(t)
	m := trackFixture(t, svc, nil)
	base := time.Now()

	observe(t, svc, m.ID, 150, false, base)
	observe(t, svc, m.ID, 150, false, base.Add(time.Minute))

	assert.Empty(t, eventsOf(t, svc, m.ID, domain.NotifyOutOfStock))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1,237.00", formatPrice(1237))
	assert.Equal(t, "$99.95", formatPrice(99.95))
	assert.Equal(t, "$0.50", formatPrice(0.5))
}
