package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/labels"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const (
	superUsername   = "admin"
	defaultPassword = "gemstrack"
)

func (a *Application) checkSuper() {
	hashedPassword, err := common.HashPassword(defaultPassword)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	var operator domain.SysOpr
	err = a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)
	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}
	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

// checkSettings creates the sys_config rows missing from the database with their defaults
func (a *Application) checkSettings() {
	var schemasData ConfigSchemasJSON
	if err := json.Unmarshal(configSchemasData, &schemasData); err != nil {
		zap.L().Error("failed to load config schemas from JSON", zap.Error(err))
		return
	}

	for sortid, schema := range schemasData.Schemas {
		category, name := splitKey(schema.Key)
		if category == "" || name == "" {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := a.gormDB.Create(&domain.SysConfig{
			ID:     common.UUIDint64(),
			Sort:   sortid,
			Type:   category,
			Name:   name,
			Value:  schema.Default,
			Remark: schema.Description,
		}).Error; err != nil {
			zap.L().Error("failed to create config", zap.String("key", schema.Key), zap.Error(err))
			continue
		}
		zap.L().Info("initialized config",
			zap.String("key", schema.Key),
			zap.String("default", schema.Default))
	}
}

// checkSchedulers initializes default scheduled tasks
func (a *Application) checkSchedulers() {
	defaultSchedulers := []domain.SysScheduler{
		{
			Name:     "Shopify Sync",
			TaskType: domain.TaskShopifySync,
			Interval: 60,
			Status:   common.ENABLED,
			Remark:   "Pushes pending catalog changes to the online store",
		},
		{
			Name:     "Print Retry",
			TaskType: domain.TaskPrintRetry,
			Interval: 120,
			Status:   common.ENABLED,
			Remark:   "Resends spooled label jobs that failed to reach the printer",
		},
		{
			Name:     "Printer Probe",
			TaskType: domain.TaskPrinterProbe,
			Interval: 3600,
			Status:   common.ENABLED,
			Remark:   "Reads printer model and status over SNMP",
		},
	}

	for _, sched := range defaultSchedulers {
		var count int64
		a.gormDB.Model(&domain.SysScheduler{}).
			Where("task_type = ?", sched.TaskType).
			Count(&count)
		if count > 0 {
			continue
		}
		sched.ID = common.UUIDint64()
		sched.NextRunAt = time.Now().Add(time.Duration(sched.Interval) * time.Second)
		if err := a.gormDB.Create(&sched).Error; err != nil {
			zap.L().Error("failed to create default scheduler",
				zap.String("name", sched.Name),
				zap.Error(err))
		} else {
			zap.L().Info("initialized default scheduler",
				zap.String("name", sched.Name),
				zap.String("task_type", sched.TaskType))
		}
	}
}

// checkLabelLayouts stores the built-in tag layout when no layout exists
func (a *Application) checkLabelLayouts() {
	var count int64
	a.gormDB.Model(&domain.LabelLayout{}).Count(&count)
	if count > 0 {
		return
	}
	row, err := labels.DefaultLayout().ToDomain()
	if err != nil {
		zap.L().Error("failed to encode default layout", zap.Error(err))
		return
	}
	row.ID = common.UUIDint64()
	row.IsDefault = true
	if err := a.gormDB.Create(&row).Error; err != nil {
		zap.L().Error("failed to create default layout", zap.Error(err))
		return
	}
	zap.L().Info("initialized default label layout", zap.String("name", row.Name))
}
