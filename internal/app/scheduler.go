package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const schedulerTick = 10 * time.Second

var ErrSchedulerNotFound = errors.New("scheduler not found")

// StartSchedulerService runs enabled schedulers periodically
func (a *Application) StartSchedulerService(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(schedulerTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.runSchedulers(ctx)
			}
		}
	}()
}

// runSchedulers executes the enabled schedulers that are due
func (a *Application) runSchedulers(ctx context.Context) {
	var schedulers []domain.SysScheduler
	a.gormDB.Where("status = ?", common.ENABLED).Find(&schedulers)
	now := time.Now()
	for i := range schedulers {
		sched := &schedulers[i]
		if sched.NextRunAt.IsZero() || !now.Before(sched.NextRunAt) {
			a.runScheduler(ctx, sched)
			a.gormDB.Model(&domain.SysScheduler{}).Where("id = ?", sched.ID).
				Update("next_run_at", now.Add(time.Duration(sched.Interval)*time.Second))
		}
	}
}

// RunSchedulerNow triggers a scheduler execution immediately by ID
func (a *Application) RunSchedulerNow(id int64) error {
	var sched domain.SysScheduler
	if err := a.gormDB.Where("id = ?", id).First(&sched).Error; err != nil {
		return ErrSchedulerNotFound
	}
	a.runScheduler(context.Background(), &sched)
	return nil
}

func (a *Application) runScheduler(ctx context.Context, sched *domain.SysScheduler) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
			a.finishScheduler(sched, fmt.Errorf("panic: %v", err), "")
		}
	}()
	var (
		msg string
		err error
	)
	switch sched.TaskType {
	case domain.TaskShopifySync:
		msg, err = a.runShopifySyncScheduler(ctx)
	case domain.TaskPrintRetry:
		msg, err = a.runPrintRetryScheduler(ctx)
	case domain.TaskPrinterProbe:
		msg, err = a.runPrinterProbeScheduler(ctx)
	default:
		err = fmt.Errorf("unknown task type %q", sched.TaskType)
	}
	a.finishScheduler(sched, err, msg)
}

func (a *Application) finishScheduler(sched *domain.SysScheduler, err error, msg string) {
	result := "success"
	if err != nil {
		result = "failed"
		msg = err.Error()
		zap.L().Warn("scheduler run failed",
			zap.String("name", sched.Name),
			zap.String("task_type", sched.TaskType),
			zap.Error(err))
	}
	a.gormDB.Model(&domain.SysScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at":  time.Now(),
		"last_result":  result,
		"last_message": msg,
	})
}

func (a *Application) runShopifySyncScheduler(ctx context.Context) (string, error) {
	if a.shopify == nil {
		return "shopify sync disabled", nil
	}
	res, err := a.shopify.SyncNow(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("processed %d, synced %d, failed %d", res.Processed, res.Synced, res.Failed), nil
}

func (a *Application) runPrintRetryScheduler(ctx context.Context) (string, error) {
	sent, remaining, err := a.printer.RetryPending(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sent %d, remaining %d", sent, remaining), nil
}

func (a *Application) runPrinterProbeScheduler(ctx context.Context) (string, error) {
	n, err := a.printer.ProbeAll(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("probed %d printers", n), nil
}
