package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"

	"luckydraw/internal/config"
	"luckydraw/internal/pkg/calendar"
	"luckydraw/internal/services"
)

// DailyResetJob zeroes the daily counters and opens the new day's pool at
// local midnight, then tells the admins how the pool looks.
type DailyResetJob struct {
	container *do.Injector
}

func NewDailyResetJob(container *do.Injector) *DailyResetJob {
	return &DailyResetJob{container}
}

func (j *DailyResetJob) Start(cronRunner *cron.Cron) error {
	settings := do.MustInvoke[config.Settings](j.container)

	_, err := cronRunner.AddFunc(settings.DailyResetCron, j.runScheduledTask)
	if err != nil {
		return err
	}

	logger.Infof("Daily reset cronjob scheduled: %s", settings.DailyResetCron)
	return nil
}

func (j *DailyResetJob) runScheduledTask() {
	ctx := context.Background()
	err := j.run(ctx)
	if errors.Is(err, services.ErrDailyResetLock) {
		logger.Info("Daily reset already running elsewhere")
		return
	}
	if err != nil {
		logger.Errorf("Daily reset failed: %v", err)
	}
}

func (j *DailyResetJob) run(ctx context.Context) error {
	serviceDailyReset, err := do.Invoke[*services.ServiceDailyReset](j.container)
	if err != nil {
		return err
	}

	if err := serviceDailyReset.Run(ctx); err != nil {
		return err
	}

	j.notifyAdmins(ctx)
	return nil
}

func (j *DailyResetJob) notifyAdmins(ctx context.Context) {
	settings := do.MustInvoke[config.Settings](j.container)
	cal := do.MustInvoke[*calendar.Calendar](j.container)

	bot, err := do.Invoke[*services.Bot](j.container)
	if err != nil {
		logger.Warningf("Daily reset summary skipped: %v", err)
		return
	}
	if !bot.Configured() || len(settings.AdminIDs) == 0 {
		return
	}

	servicePool, err := do.Invoke[*services.ServicePool](j.container)
	if err != nil {
		logger.Warningf("Daily reset summary skipped: %v", err)
		return
	}

	pools, err := servicePool.GetTodayPoolStatus(ctx)
	if err != nil {
		logger.Warningf("Daily reset summary skipped: %v", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Prize pool for %s</b>\n", cal.Today())
	for _, pool := range pools {
		fmt.Fprintf(&sb, "%s: %d / %d\n", pool.Tier, pool.Remaining, pool.TotalCount)
	}

	for _, adminID := range settings.AdminIDs {
		chatID, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			continue
		}
		if err := bot.SendMsg(chatID, sb.String()); err != nil {
			logger.Warningf("Daily reset summary to %s: %v", adminID, err)
		}
	}
}
