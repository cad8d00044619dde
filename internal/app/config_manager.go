package app

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

//go:embed config_schemas.json
var configSchemasData []byte

// ConfigSchema describes one sys_config row and its default
type ConfigSchema struct {
	Key         string `json:"key"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type ConfigSchemasJSON struct {
	Schemas []ConfigSchema `json:"schemas"`
}

const keySettingsSnapshot = "settings:snapshot"

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidSetting = errors.New("invalid setting value")
	ErrNegativeRate   = errors.New("rates must not be negative")
)

// ConfigManager keeps the sys_config rows in memory and decodes them into Settings
type ConfigManager struct {
	db       *gorm.DB
	rdb      *redis.Client
	group    singleflight.Group
	mu       sync.RWMutex
	values   map[string]map[string]string
	settings domain.Settings
	schemas  map[string]ConfigSchema
}

func NewConfigManager(db *gorm.DB, rdb *redis.Client) *ConfigManager {
	m := &ConfigManager{db: db, rdb: rdb, schemas: map[string]ConfigSchema{}}
	var data ConfigSchemasJSON
	if err := json.Unmarshal(configSchemasData, &data); err != nil {
		zap.L().Error("failed to load config schemas", zap.Error(err))
	}
	for _, s := range data.Schemas {
		m.schemas[s.Key] = s
	}
	if err := m.Reload(); err != nil {
		zap.L().Error("failed to load settings", zap.Error(err))
	}
	return m
}

// Schemas lists the known setting keys
func (m *ConfigManager) Schemas() map[string]ConfigSchema {
	return m.schemas
}

// Reload re-reads sys_config. Concurrent callers share one query.
func (m *ConfigManager) Reload() error {
	_, err, _ := m.group.Do("reload", func() (interface{}, error) {
		var rows []domain.SysConfig
		if err := m.db.Find(&rows).Error; err != nil {
			return nil, errors.Wrap(err, "load sys_config")
		}
		values := map[string]map[string]string{}
		for _, schema := range m.schemas {
			cat, name := splitKey(schema.Key)
			setValue(values, cat, name, schema.Default)
		}
		for _, r := range rows {
			setValue(values, r.Type, r.Name, r.Value)
		}
		settings, err := decodeSettings(values)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.values = values
		m.settings = settings
		m.mu.Unlock()
		m.cacheSnapshot(settings)
		return nil, nil
	})
	return err
}

func (m *ConfigManager) cacheSnapshot(s domain.Settings) {
	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.Set(ctx, keySettingsSnapshot, data, 0).Err(); err != nil {
		zap.L().Warn("cache settings snapshot failed", zap.Error(err), zap.String("namespace", "settings"))
	}
}

func splitKey(key string) (string, string) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

func setValue(values map[string]map[string]string, cat, name, v string) {
	if values[cat] == nil {
		values[cat] = map[string]string{}
	}
	values[cat][name] = v
}

func decodeSettings(values map[string]map[string]string) (domain.Settings, error) {
	var s domain.Settings
	input := map[string]interface{}{}
	for cat, kv := range values {
		inner := map[string]interface{}{}
		for k, v := range kv {
			inner[k] = v
		}
		input[cat] = inner
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(input); err != nil {
		return s, errors.Wrap(ErrInvalidSetting, err.Error())
	}
	return s, nil
}

// Settings returns a copy of the current typed settings
func (m *ConfigManager) Settings() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Save validates and writes "category.name" values, then reloads.
// Rates must parse as finite non-negative numbers. A save that would
// not decode writes nothing.
func (m *ConfigManager) Save(ctx context.Context, updates map[string]interface{}) (domain.Settings, error) {
	rows := make(map[string]string, len(updates))
	for key, raw := range updates {
		if _, ok := m.schemas[key]; !ok {
			return domain.Settings{}, errors.Wrap(ErrUnknownSetting, key)
		}
		v := strings.TrimSpace(cast.ToString(raw))
		if strings.HasPrefix(key, "rates.") {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return domain.Settings{}, errors.Wrap(ErrInvalidSetting, key)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return domain.Settings{}, errors.Wrap(ErrInvalidSetting, key)
			}
			if f < 0 {
				return domain.Settings{}, errors.Wrap(ErrNegativeRate, key)
			}
			v = cast.ToString(f)
		}
		rows[key] = v
	}

	// nothing is written unless the merged values still decode
	merged := map[string]map[string]string{}
	m.mu.RLock()
	for cat, kv := range m.values {
		for k, v := range kv {
			setValue(merged, cat, k, v)
		}
	}
	m.mu.RUnlock()
	for key, v := range rows {
		cat, name := splitKey(key)
		setValue(merged, cat, name, v)
	}
	if _, err := decodeSettings(merged); err != nil {
		return domain.Settings{}, errors.Wrap(err, "save settings")
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, v := range rows {
			cat, name := splitKey(key)
			res := tx.Model(&domain.SysConfig{}).Where("type = ? AND name = ?", cat, name).
				Updates(map[string]interface{}{"value": v, "updated_at": time.Now()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				row := domain.SysConfig{
					ID:     common.UUIDint64(),
					Type:   cat,
					Name:   name,
					Value:  v,
					Remark: m.schemas[key].Description,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.Settings{}, errors.Wrap(err, "save settings")
	}
	if err := m.Reload(); err != nil {
		return domain.Settings{}, err
	}
	zap.L().Info("settings saved", zap.Int("count", len(rows)), zap.String("namespace", "settings"))
	return m.Settings(), nil
}

// Flatten returns every setting as "category.name" -> value
func (m *ConfigManager) Flatten() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]string{}
	for cat, kv := range m.values {
		for k, v := range kv {
			out[fmt.Sprintf("%s.%s", cat, k)] = v
		}
	}
	return out
}
