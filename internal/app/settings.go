package app

import (
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/denwilliams/pricetracker/internal/domain"
)

const DefaultSettingsCacheTTL = 30 * time.Second

type cachedSetting struct {
	value    string
	loadedAt time.Time
}

// ConfigManager reads runtime settings from sys_config with a short-lived
// cache so scheduler ticks don't hit the database for every tunable.
type ConfigManager struct {
	app   *Application
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]cachedSetting
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{
		app:   app,
		ttl:   DefaultSettingsCacheTTL,
		cache: make(map[string]cachedSetting),
	}
}

func (cm *ConfigManager) GetString(category, name string) string {
	key := category + "." + name

	cm.mu.RLock()
	cached, ok := cm.cache[key]
	cm.mu.RUnlock()
	if ok && time.Since(cached.loadedAt) < cm.ttl {
		return cached.value
	}

	var item domain.SysConfig
	err := cm.app.gormDB.
		Where("type = ? and name = ?", category, name).
		First(&item).Error
	if err != nil {
		zap.L().Debug("setting not found",
			zap.String("category", category),
			zap.String("name", name))
		return ""
	}

	cm.mu.Lock()
	cm.cache[key] = cachedSetting{value: item.Value, loadedAt: time.Now()}
	cm.mu.Unlock()
	return item.Value
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.GetString(category, name))
}

func (cm *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(cm.GetString(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.GetString(category, name))
}

// SetValue updates a setting and invalidates its cache entry.
func (cm *ConfigManager) SetValue(category, name, value string) error {
	err := cm.app.gormDB.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", category, name).
		Update("value", value).Error
	if err != nil {
		return err
	}

	cm.mu.Lock()
	delete(cm.cache, category+"."+name)
	cm.mu.Unlock()
	return nil
}
