package config

import (
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig admin API configuration
type WebConfig struct {
	Host       string  `yaml:"host" json:"host"`
	Port       int     `yaml:"port" json:"port"`
	Secret     string  `yaml:"secret" json:"secret"`
	JwtSecret  string  `yaml:"jwt_secret" json:"jwt_secret"`
	SessionKey string  `yaml:"session_key" json:"session_key"`
	LoginRate  float64 `yaml:"login_rate" json:"login_rate"` // login attempts per second per client
}

// DBConfig database configuration
type DBConfig struct {
	Type     string `yaml:"type" json:"type"` // postgres | sqlite
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// LogConfig logger configuration
type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// ShopifyConfig Shopify Admin API credentials
type ShopifyConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ShopDomain  string `yaml:"shop_domain" json:"shop_domain"`
	AccessToken string `yaml:"access_token" json:"-"`
	ApiVersion  string `yaml:"api_version" json:"api_version"`
	Workers     int    `yaml:"workers" json:"workers"`
}

// PrinterConfig label printing configuration
type PrinterConfig struct {
	SpoolFile   string `yaml:"spool_file" json:"spool_file"`
	DialTimeout int    `yaml:"dial_timeout" json:"dial_timeout"` // seconds
	MaxRetry    int    `yaml:"max_retry" json:"max_retry"`
}

// RedisConfig optional cache
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"-"`
	DB       int    `yaml:"db" json:"db"`
}

// KafkaConfig optional event stream
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// MailConfig outgoing mail
type MailConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	From     string `yaml:"from" json:"from"`
}

// AppConfig application configuration
type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Database DBConfig      `yaml:"database" json:"database"`
	Logger   LogConfig     `yaml:"logger" json:"logger"`
	Shopify  ShopifyConfig `yaml:"shopify" json:"shopify"`
	Printer  PrinterConfig `yaml:"printer" json:"printer"`
	Redis    RedisConfig   `yaml:"redis" json:"redis"`
	Kafka    KafkaConfig   `yaml:"kafka" json:"kafka"`
	Mail     MailConfig    `yaml:"mail" json:"mail"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// MailEnabled reports whether outgoing mail is configured
func (c *AppConfig) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.From != ""
}

// String renders the config as yaml with secrets masked
func (c *AppConfig) String() string {
	masked := *c
	masked.Web.Secret = "******"
	masked.Web.JwtSecret = "******"
	masked.Database.Passwd = "******"
	masked.Shopify.AccessToken = "******"
	masked.Mail.Password = "******"
	masked.Redis.Password = "******"
	bs, err := yaml.Marshal(&masked)
	if err != nil {
		return err.Error()
	}
	return string(bs)
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "GemsTrack",
		Location: "Asia/Karachi",
		Workdir:  "/var/gemstrack",
		Debug:    true,
	},
	Web: WebConfig{
		Host:       "0.0.0.0",
		Port:       1816,
		Secret:     "9b6de5cc-0731-4e4e-a8c5-3a1f2d9c0f61",
		JwtSecret:  "gemstrack-jwt-secret",
		SessionKey: "gemstrack_session",
		LoginRate:  1,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "gemstrack",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  50,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/gemstrack/logs/gemstrack.log",
	},
	Shopify: ShopifyConfig{
		ApiVersion: "2024-01",
		Workers:    4,
	},
	Printer: PrinterConfig{
		SpoolFile:   "/var/gemstrack/data/printspool.db",
		DialTimeout: 5,
		MaxRetry:    3,
	},
	Redis: RedisConfig{
		Addr: "127.0.0.1:6379",
	},
	Kafka: KafkaConfig{
		Topic: "gemstrack.events",
	},
}

// LoadConfig reads the yaml file when it exists, then applies .env and GEMSTRACK_* overrides.
func LoadConfig(cfile string) *AppConfig {
	_ = godotenv.Load()

	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile == "" {
		cfile = "gemstrack.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(err)
		}
	}

	applyEnv(cfg)
	cfg.initDirs()
	return cfg
}

func applyEnv(cfg *AppConfig) {
	setString("GEMSTRACK_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setString("GEMSTRACK_SYSTEM_LOCATION", &cfg.System.Location)
	setBool("GEMSTRACK_SYSTEM_DEBUG", &cfg.System.Debug)

	setString("GEMSTRACK_WEB_HOST", &cfg.Web.Host)
	setInt("GEMSTRACK_WEB_PORT", &cfg.Web.Port)
	setString("GEMSTRACK_WEB_SECRET", &cfg.Web.Secret)
	setString("GEMSTRACK_WEB_JWT_SECRET", &cfg.Web.JwtSecret)

	setString("GEMSTRACK_DB_TYPE", &cfg.Database.Type)
	setString("GEMSTRACK_DB_HOST", &cfg.Database.Host)
	setInt("GEMSTRACK_DB_PORT", &cfg.Database.Port)
	setString("GEMSTRACK_DB_NAME", &cfg.Database.Name)
	setString("GEMSTRACK_DB_USER", &cfg.Database.User)
	setString("GEMSTRACK_DB_PWD", &cfg.Database.Passwd)
	setBool("GEMSTRACK_DB_DEBUG", &cfg.Database.Debug)

	setString("GEMSTRACK_LOGGER_MODE", &cfg.Logger.Mode)
	setBool("GEMSTRACK_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setBool("GEMSTRACK_SHOPIFY_ENABLED", &cfg.Shopify.Enabled)
	setString("GEMSTRACK_SHOPIFY_DOMAIN", &cfg.Shopify.ShopDomain)
	setString("GEMSTRACK_SHOPIFY_TOKEN", &cfg.Shopify.AccessToken)

	setBool("GEMSTRACK_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("GEMSTRACK_REDIS_ADDR", &cfg.Redis.Addr)
	setString("GEMSTRACK_REDIS_PASSWORD", &cfg.Redis.Password)

	if v := os.Getenv("GEMSTRACK_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}

	setString("GEMSTRACK_MAIL_HOST", &cfg.Mail.Host)
	setInt("GEMSTRACK_MAIL_PORT", &cfg.Mail.Port)
	setString("GEMSTRACK_MAIL_USERNAME", &cfg.Mail.Username)
	setString("GEMSTRACK_MAIL_PASSWORD", &cfg.Mail.Password)
	setString("GEMSTRACK_MAIL_FROM", &cfg.Mail.From)
}

func setString(env string, dst *string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(env string, dst *int) {
	if v := os.Getenv(env); v != "" {
		*dst = cast.ToInt(v)
	}
}

func setBool(env string, dst *bool) {
	if v := os.Getenv(env); v != "" {
		*dst = cast.ToBool(v)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
