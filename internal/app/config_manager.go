package app

import (
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pricetrack/pricetrack/internal/domain"
)

// ConfigManager reads runtime settings from the sys_config table with a
// small in-memory cache. Settings are grouped by category and name.
type ConfigManager struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]string
}

func NewConfigManager(db *gorm.DB) *ConfigManager {
	return &ConfigManager{
		db:    db,
		cache: make(map[string]string),
	}
}

func (m *ConfigManager) value(category, name string) string {
	key := category + "." + name
	m.mu.RLock()
	if v, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return v
	}
	m.mu.RUnlock()

	var cfg domain.SysConfig
	err := m.db.Where("type = ? and name = ?", category, name).First(&cfg).Error
	if err != nil {
		return ""
	}

	m.mu.Lock()
	m.cache[key] = cfg.Value
	m.mu.Unlock()
	return cfg.Value
}

// Set persists a setting and refreshes the cache.
func (m *ConfigManager) Set(category, name, value string) error {
	var count int64
	m.db.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", category, name).
		Count(&count)

	var err error
	if count == 0 {
		err = m.db.Create(&domain.SysConfig{
			Type:  category,
			Name:  name,
			Value: value,
		}).Error
	} else {
		err = m.db.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Update("value", value).Error
	}
	if err != nil {
		zap.L().Error("failed to save setting",
			zap.String("category", category),
			zap.String("name", name),
			zap.Error(err))
		return err
	}

	m.mu.Lock()
	m.cache[category+"."+name] = value
	m.mu.Unlock()
	return nil
}

func (m *ConfigManager) GetString(category, name string) string {
	return m.value(category, name)
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.value(category, name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.value(category, name))
}
