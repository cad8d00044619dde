package app

import (
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
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
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/metrics"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	configManager *ConfigManager
	rdb           *redis.Client
	bus           *events.Bus
	kafka         *events.KafkaProducer
	catalog       *catalog.Service
	sales         *sales.Service
	analytics     *analytics.Service
	printer       *printer.Service
	spool         *printer.Spool
	shopify       *shopify.SyncService
	hub           *realtime.Hub
	cancel        context.CancelFunc
}

// Ensure Application implements all interfaces
var (
	_ DBProvider            = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ ServiceProvider       = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.Bootstrap(); err != nil {
		zap.S().Fatalf("application bootstrap failed: %v", err)
	}
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	var err error
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

// Bootstrap migrates and seeds the database and wires the services on the current DB handle
func (a *Application) Bootstrap() error {
	cfg := a.appConfig
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}
	a.checkSuper()
	a.checkSettings()
	a.checkSchedulers()
	a.checkLabelLayouts()

	if cfg.Redis.Enabled {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	a.configManager = NewConfigManager(a.gormDB, a.rdb)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.bus = events.NewBus()
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka = events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256)
		a.kafka.Start(ctx)
		a.bus.Bridge(a.kafka)
	}
	a.hub = realtime.NewHub()
	a.hub.Subscribe(a.bus)

	a.catalog = catalog.NewService(a.gormDB, a.bus)
	if err := a.catalog.Warmup(ctx); err != nil {
		zap.L().Warn("sku index warmup failed", zap.Error(err))
	}

	opts := []sales.Option{sales.WithPublisher(a.bus), sales.WithStockNotifier(a.catalog)}
	if a.rdb != nil {
		opts = append(opts, sales.WithIdempotency(sales.NewRedisIdempotency(a.rdb)))
	}
	if cfg.MailEnabled() {
		opts = append(opts, sales.WithMailer(sales.NewSMTPMailer(cfg.Mail)))
	}
	a.sales = sales.NewService(a.gormDB, a, opts...)
	a.analytics = analytics.NewService(a.gormDB)

	spoolFile := cfg.Printer.SpoolFile
	if spoolFile == "" {
		spoolFile = filepath.Join(cfg.GetDataDir(), "printspool.db")
	}
	_ = os.MkdirAll(filepath.Dir(spoolFile), 0o755)
	spool, err := printer.OpenSpool(spoolFile)
	if err != nil {
		return err
	}
	a.spool = spool
	a.printer = printer.NewService(a.gormDB, spool,
		time.Duration(cfg.Printer.DialTimeout)*time.Second,
		printer.WithMaxRetry(cfg.Printer.MaxRetry))

	if cfg.Shopify.Enabled {
		client := shopify.NewRESTClient(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken, cfg.Shopify.ApiVersion)
		a.shopify = shopify.NewSyncService(a.gormDB,
			shopify.NewGormSyncRepository(a.gormDB),
			shopify.NewGormSyncLogRepository(a.gormDB),
			client, a, cfg.Shopify.Workers)
		a.shopify.Subscribe(a.bus)
		zap.L().Info("shopify sync initialized", zap.String("shop", cfg.Shopify.ShopDomain), zap.String("namespace", "shopify"))
	}

	a.initJob()
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// InitDb recreates every table and seeds the defaults again
func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
	a.checkSuper()
	a.checkSettings()
	a.checkSchedulers()
	a.checkLabelLayouts()
	if a.configManager != nil {
		if err := a.configManager.Reload(); err != nil {
			zap.S().Error(err)
		}
	}
	if a.catalog != nil {
		_ = a.catalog.Warmup(context.Background())
	}
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Settings returns the current settings snapshot
func (a *Application) Settings() domain.Settings {
	return a.configManager.Settings()
}

// SaveSettings persists the updates, records the new rates and notifies listeners
func (a *Application) SaveSettings(ctx context.Context, updates map[string]interface{}) (domain.Settings, error) {
	settings, err := a.configManager.Save(ctx, updates)
	if err != nil {
		return settings, err
	}
	ratesChanged := false
	for k := range updates {
		if strings.HasPrefix(k, "rates.") {
			ratesChanged = true
		}
	}
	if ratesChanged {
		recordRates(settings.Rates, time.Now())
	}
	a.bus.Publish(events.SettingsUpdated, map[string]interface{}{
		"rates":   settings.Rates.Snapshot(),
		"pricing": settings.Pricing,
		"shop":    settings.Shop,
	})
	return settings, nil
}

func recordRates(r domain.RateSettings, at time.Time) {
	for metal, v := range map[string]float64{
		"gold_18k":  r.Gold18k,
		"gold_21k":  r.Gold21k,
		"gold_22k":  r.Gold22k,
		"gold_24k":  r.Gold24k,
		"palladium": r.Palladium,
		"platinum":  r.Platinum,
	} {
		if err := metrics.Record("metal_rate", v, at, "metal", metal); err != nil {
			zap.L().Warn("record rate failed", zap.String("metal", metal), zap.Error(err))
		}
	}
}

// DeviceAllowed admits every device unless the allow-list is enforced
func (a *Application) DeviceAllowed(ctx context.Context, deviceID string) bool {
	sec := a.Settings().Security
	if !sec.EnforceDeviceAllowlist {
		return true
	}
	if deviceID == "" {
		return false
	}
	if common.InSlice(deviceID, common.SplitTrim(sec.AllowedDevices)) {
		return true
	}
	res := a.gormDB.WithContext(ctx).Model(&domain.SysDevice{}).
		Where("device_id = ? AND status = ?", deviceID, common.ENABLED).
		Update("last_seen", time.Now())
	return res.Error == nil && res.RowsAffected > 0
}

func (a *Application) Catalog() *catalog.Service     { return a.catalog }
func (a *Application) Sales() *sales.Service         { return a.sales }
func (a *Application) Analytics() *analytics.Service { return a.analytics }
func (a *Application) Printer() *printer.Service     { return a.printer }
func (a *Application) Shopify() *shopify.SyncService { return a.shopify }
func (a *Application) Realtime() *realtime.Hub       { return a.hub }
func (a *Application) Events() *events.Bus           { return a.bus }

// StartBackgroundJobs starts the scheduler runner and the store sync loop
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	a.StartSchedulerService(ctx)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.shopify != nil {
		a.shopify.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.bus != nil {
		a.bus.Wait()
	}
	if a.kafka != nil {
		a.kafka.WaitClosed()
	}
	if a.spool != nil {
		_ = a.spool.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
