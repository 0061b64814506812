package app

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// initJob wires the cron scheduler with the periodic snapshot task.
func (a *Application) initJob() {
	a.sched = cron.New()

	if !a.GetSettingsBoolValue("snapshot", "enabled") {
		a.sched.Start()
		return
	}

	spec := a.GetSettingsStringValue("snapshot", "cron")
	if spec == "" {
		spec = "@daily"
	}

	_, err := a.sched.AddFunc(spec, a.runSnapshotJob)
	if err != nil {
		zap.L().Error("failed to register snapshot job", zap.String("spec", spec), zap.Error(err))
	}

	a.sched.Start()
}

// runSnapshotJob writes a dated CSV snapshot of the product list into
// the backup directory.
func (a *Application) runSnapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	name := "products-" + time.Now().Format("20060102-150405") + ".csv"
	target := path.Join(a.appConfig.GetBackupDir(), name)

	file, err := os.Create(target)
	if err != nil {
		zap.L().Error("snapshot job: create file failed", zap.String("file", target), zap.Error(err))
		return
	}
	defer file.Close()

	if err := a.exporter.ExportCSV(ctx, file); err != nil {
		zap.L().Error("snapshot job: export failed", zap.Error(err))
		return
	}

	zap.L().Info("snapshot written", zap.String("file", target))
}
