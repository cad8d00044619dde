package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/analytics"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/printer"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/realtime"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/sales"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/shopify"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides typed shop settings
type SettingsProvider interface {
	Settings() domain.Settings
	SaveSettings(ctx context.Context, updates map[string]interface{}) (domain.Settings, error)
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// ServiceProvider exposes the domain services to the API layer
type ServiceProvider interface {
	Catalog() *catalog.Service
	Sales() *sales.Service
	Analytics() *analytics.Service
	Printer() *printer.Service
	// Shopify is nil when the store integration is disabled
	Shopify() *shopify.SyncService
	Realtime() *realtime.Hub
	Events() *events.Bus
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider
	ServiceProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// RunSchedulerNow triggers a scheduler execution immediately by ID
	RunSchedulerNow(id int64) error
	DeviceAllowed(ctx context.Context, deviceID string) bool
}
