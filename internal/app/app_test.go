package app

import (
	"context"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()
	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.System.Workdir = dir
	cfg.Printer.SpoolFile = filepath.Join(dir, "spool.db")
	cfg.Redis.Enabled = false
	cfg.Kafka.Brokers = nil
	cfg.Shopify.Enabled = false

	a := NewApplication(cfg)
	a.OverrideDB(testutil.NewDB(t))
	require.NoError(t, a.Bootstrap())
	t.Cleanup(a.Release)
	return a
}

func TestBootstrapSeeds(t *testing.T) {
	a := newTestApp(t)

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", superUsername).First(&opr).Error)
	assert.Equal(t, "super", opr.Level)
	assert.True(t, common.CheckPassword(opr.Password, defaultPassword))

	var count int64
	a.DB().Model(&domain.SysConfig{}).Count(&count)
	assert.EqualValues(t, len(a.ConfigMgr().Schemas()), count)

	a.DB().Model(&domain.SysScheduler{}).Count(&count)
	assert.EqualValues(t, 3, count)

	var layout domain.LabelLayout
	require.NoError(t, a.DB().Where("is_default = ?", true).First(&layout).Error)
	assert.NotEmpty(t, layout.Fields)

	assert.Equal(t, "GemsTrack Jewellers", a.Settings().Shop.Name)
	assert.Nil(t, a.Shopify())
	assert.NotNil(t, a.Catalog())
	assert.NotNil(t, a.Printer())
}

func TestBootstrapIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	a.checkSettings()
	a.checkSchedulers()
	a.checkLabelLayouts()
	a.checkSuper()

	var count int64
	a.DB().Model(&domain.SysScheduler{}).Count(&count)
	assert.EqualValues(t, 3, count)
	a.DB().Model(&domain.LabelLayout{}).Count(&count)
	assert.EqualValues(t, 1, count)
	a.DB().Model(&domain.SysOpr{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSaveSettings(t *testing.T) {
	a := newTestApp(t)
	var published int32
	a.Events().Subscribe(events.SettingsUpdated, func(ev events.Envelope) {
		atomic.AddInt32(&published, 1)
	})

	s, err := a.SaveSettings(context.Background(), map[string]interface{}{
		"rates.gold_22k":                "18500.5",
		"pricing.price_non_gold_metals": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 18500.5, s.Rates.Gold22k)
	assert.True(t, s.Pricing.PriceNonGoldMetals)
	a.Events().Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&published))

	_, err = a.SaveSettings(context.Background(), map[string]interface{}{"rates.gold_24k": -1})
	assert.ErrorIs(t, err, ErrNegativeRate)
	_, err = a.SaveSettings(context.Background(), map[string]interface{}{"rates.gold_24k": "abc"})
	assert.ErrorIs(t, err, ErrInvalidSetting)
	_, err = a.SaveSettings(context.Background(), map[string]interface{}{"shop.unknown": "x"})
	assert.ErrorIs(t, err, ErrUnknownSetting)

	assert.Equal(t, 18500.5, a.Settings().Rates.Gold22k)
	assert.Equal(t, 0.0, a.Settings().Rates.Gold24k)
}

func TestSaveSettingsRejectedWritesNothing(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	_, err := a.SaveSettings(ctx, map[string]interface{}{"rates.gold_22k": 20000})
	require.NoError(t, err)

	storedValue := func(cat, name string) string {
		var row domain.SysConfig
		require.NoError(t, a.DB().Where("type = ? AND name = ?", cat, name).First(&row).Error)
		return row.Value
	}
	before := storedValue("pricing", "price_non_gold_metals")

	_, err = a.SaveSettings(ctx, map[string]interface{}{
		"rates.gold_22k":                21000,
		"pricing.price_non_gold_metals": "banana",
	})
	assert.ErrorIs(t, err, ErrInvalidSetting)
	assert.Equal(t, before, storedValue("pricing", "price_non_gold_metals"))
	assert.Equal(t, "20000", storedValue("rates", "gold_22k"))
	assert.Equal(t, 20000.0, a.Settings().Rates.Gold22k)

	s, err := a.SaveSettings(ctx, map[string]interface{}{"rates.gold_22k": 21000})
	require.NoError(t, err)
	assert.Equal(t, 21000.0, s.Rates.Gold22k)

	restarted := NewConfigManager(a.DB(), nil)
	assert.Equal(t, 21000.0, restarted.Settings().Rates.Gold22k)
}

func TestSaveSettingsRejectsNonFiniteRates(t *testing.T) {
	a := newTestApp(t)
	for _, v := range []interface{}{"NaN", "Inf", "-Inf", math.Inf(1)} {
		_, err := a.SaveSettings(context.Background(), map[string]interface{}{"rates.gold_24k": v})
		assert.ErrorIs(t, err, ErrInvalidSetting, "%v", v)
	}
	assert.Equal(t, 0.0, a.Settings().Rates.Gold24k)
}

func TestDeviceAllowed(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	assert.True(t, a.DeviceAllowed(ctx, ""))

	_, err := a.SaveSettings(ctx, map[string]interface{}{
		"security.enforce_device_allowlist": "true",
		"security.allowed_devices":          "till-1, till-2",
	})
	require.NoError(t, err)

	assert.True(t, a.DeviceAllowed(ctx, "till-2"))
	assert.False(t, a.DeviceAllowed(ctx, ""))
	assert.False(t, a.DeviceAllowed(ctx, "tablet"))

	require.NoError(t, a.DB().Create(&domain.SysDevice{
		ID: common.UUIDint64(), DeviceID: "tablet", Name: "Counter tablet", Status: common.ENABLED,
	}).Error)
	assert.True(t, a.DeviceAllowed(ctx, "tablet"))

	require.NoError(t, a.DB().Create(&domain.SysDevice{
		ID: common.UUIDint64(), DeviceID: "old", Status: common.DISABLED,
	}).Error)
	assert.False(t, a.DeviceAllowed(ctx, "old"))
}

func TestRunSchedulerNow(t *testing.T) {
	a := newTestApp(t)

	var probe domain.SysScheduler
	require.NoError(t, a.DB().Where("task_type = ?", domain.TaskPrinterProbe).First(&probe).Error)
	require.NoError(t, a.RunSchedulerNow(probe.ID))
	require.NoError(t, a.DB().First(&probe, probe.ID).Error)
	assert.Equal(t, "success", probe.LastResult)
	assert.Equal(t, "probed 0 printers", probe.LastMessage)

	var sync domain.SysScheduler
	require.NoError(t, a.DB().Where("task_type = ?", domain.TaskShopifySync).First(&sync).Error)
	require.NoError(t, a.RunSchedulerNow(sync.ID))
	require.NoError(t, a.DB().First(&sync, sync.ID).Error)
	assert.Equal(t, "shopify sync disabled", sync.LastMessage)

	assert.ErrorIs(t, a.RunSchedulerNow(42), ErrSchedulerNotFound)
}

func TestRunSchedulersAdvancesNextRun(t *testing.T) {
	a := newTestApp(t)
	var retry domain.SysScheduler
	require.NoError(t, a.DB().Where("task_type = ?", domain.TaskPrintRetry).First(&retry).Error)
	require.NoError(t, a.DB().Model(&retry).Update("next_run_at", retry.CreatedAt.Add(-1)).Error)

	a.runSchedulers(context.Background())

	var after domain.SysScheduler
	require.NoError(t, a.DB().First(&after, retry.ID).Error)
	assert.True(t, after.NextRunAt.After(retry.CreatedAt))
	assert.Equal(t, "sent 0, remaining 0", after.LastMessage)
}
