package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromYaml(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "gemstrack.yml")
	content := `
system:
  appid: TestShop
  workdir: ` + dir + `
database:
  type: sqlite
  name: test.db
shopify:
  enabled: true
  shop_domain: demo.myshopify.com
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "TestShop", cfg.System.Appid)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.True(t, cfg.Shopify.Enabled)
	assert.Equal(t, "demo.myshopify.com", cfg.Shopify.ShopDomain)
	// untouched sections keep defaults
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.Equal(t, "2024-01", cfg.Shopify.ApiVersion)
	assert.DirExists(t, cfg.GetDataDir())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMSTRACK_SYSTEM_WORKDIR", dir)
	t.Setenv("GEMSTRACK_WEB_PORT", "9090")
	t.Setenv("GEMSTRACK_DB_DEBUG", "true")
	t.Setenv("GEMSTRACK_KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestDefaultConfigIsNotMutated(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMSTRACK_SYSTEM_WORKDIR", dir)
	t.Setenv("GEMSTRACK_WEB_HOST", "127.0.0.9")

	_ = LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Equal(t, "0.0.0.0", DefaultAppConfig.Web.Host)
}

func TestMailEnabled(t *testing.T) {
	cfg := &AppConfig{}
	assert.False(t, cfg.MailEnabled())
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.From = "shop@example.com"
	assert.True(t, cfg.MailEnabled())
}
