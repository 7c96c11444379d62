package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/agenda-management/internal/activity"
	activityPostgres "github.com/frahmantamala/agenda-management/internal/activity/postgres"
	"github.com/frahmantamala/agenda-management/internal/agenda"
	agendaPostgres "github.com/frahmantamala/agenda-management/internal/agenda/postgres"
	"github.com/frahmantamala/agenda-management/pkg/logger"
)

var (
	sweepMaxPendingDays int
	sweepKeepDays       int
	sweepSkipPrune      bool
)

// sweepCmd runs the periodic maintenance once and exits, so cron or a
// systemd timer can own the schedule.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Auto-reject stale pending agendas and prune old activity logs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		lg := logger.LoggerWrapper()

		gormDB, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		maxDays := sweepMaxPendingDays
		if maxDays == 0 {
			maxDays = cfg.Lifecycle.StalePendingMaxDays
		}
		keepDays := sweepKeepDays
		if keepDays == 0 {
			keepDays = cfg.Lifecycle.ActivityKeepDays
		}

		activityService := activity.NewService(
			activityPostgres.NewRepository(gormDB),
			activityPostgres.NewAnalyticsRepository(sqlxDB),
			lg,
		)

		agendaService := agenda.NewService(agendaPostgres.NewRepository(gormDB), nil, lg)

		rejected, err := agendaService.AutoRejectStale(context.Background(), maxDays)
		if err != nil {
			log.Fatalf("auto-reject sweep failed: %v", err)
		}
		if rejected > 0 {
			activityService.Record(nil, "agenda.rejected", nil,
				agenda.StaleRejectionReason, "", "system")
		}
		lg.Info("stale agendas rejected", "count", rejected, "max_days", maxDays)

		if !sweepSkipPrune {
			pruned, err := activityService.Prune(keepDays)
			if err != nil {
				log.Fatalf("activity prune failed: %v", err)
			}
			lg.Info("activity logs pruned", "count", pruned, "keep_days", keepDays)
		}
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepMaxPendingDays, "max-pending-days", 0, "override lifecycle.stale_pending_max_days")
	sweepCmd.Flags().IntVar(&sweepKeepDays, "keep-days", 0, "override lifecycle.activity_keep_days")
	sweepCmd.Flags().BoolVar(&sweepSkipPrune, "skip-prune", false, "only auto-reject, do not prune activity logs")
}
