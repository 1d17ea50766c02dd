package app

import (
	"context"
	"log"
	"time"

	"osdashboard/internal/export"
	"osdashboard/internal/report"
	"osdashboard/internal/session"
)

type cycleRunner interface {
	Run(ctx context.Context) session.Outcome
}

type rowSource interface {
	Rows(ctx context.Context) ([]report.MergedRow, error)
}

type cycleNotifier interface {
	NotifyCycle(ctx context.Context, ok bool, message string) error
}

// newCycleJob returns the scheduled job: one sync cycle, then the optional
// Slack notice and workbook snapshot. Rejected runs produce neither.
func newCycleJob(runner cycleRunner, rows rowSource, notifier cycleNotifier, outputDir string, loc *time.Location) func(context.Context) {
	if loc == nil {
		loc = time.Local
	}
	return func(ctx context.Context) {
		out := runner.Run(ctx)
		if out.Rejected {
			log.Printf("scheduled sync skipped: %s", out.Message)
			return
		}
		log.Printf("scheduled sync run=%s ok=%t", out.RunID, out.OK)

		if notifier != nil {
			if err := notifier.NotifyCycle(ctx, out.OK, out.Message); err != nil {
				log.Printf("slack notify error: %v", err)
			}
		}

		if outputDir == "" || !out.OK {
			return
		}
		merged, err := rows.Rows(ctx)
		if err != nil {
			log.Printf("export load error: %v", err)
			return
		}
		path, err := export.SaveToDir(outputDir, merged, time.Now().In(loc))
		if err != nil {
			log.Printf("export save error: %v", err)
			return
		}
		log.Printf("export saved to %s (%d rows)", path, len(merged))
	}
}
