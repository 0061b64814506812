package app

import (
	"go.uber.org/zap"

	"github.com/pricetrack/pricetrack/internal/domain"
)

type settingSchema struct {
	Category    string
	Name        string
	Default     string
	Description string
}

var defaultSettings = []settingSchema{
	{"catalog", "sentinel_category", "Uncategorized", "Label shown and matched for products without a category"},
	{"catalog", "prediction_min_chars", "2", "Minimum typed characters before place autocomplete runs"},
	{"snapshot", "enabled", "true", "Enable the scheduled product snapshot"},
	{"snapshot", "cron", "@daily", "Cron spec for the scheduled product snapshot"},
}

// checkSettings initializes missing runtime settings with defaults
func (a *Application) checkSettings() {
	for sortid, schema := range defaultSettings {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", schema.Category, schema.Name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				Sort:   sortid,
				Type:   schema.Category,
				Name:   schema.Name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized setting",
				zap.String("key", schema.Category+"."+schema.Name),
				zap.String("default", schema.Default))
		}
	}
}
