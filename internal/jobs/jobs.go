package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"leadwatch/internal/core"
	"leadwatch/internal/webhook"
)

// StartScheduler starts the background maintenance scheduler: the hourly
// webhook receipt sweep and the daily transition-history prune. It returns
// the scheduler so the caller can stop it on shutdown.
func StartScheduler(app *core.App) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleReceiptSweep(s, app)
	scheduleHistoryPrune(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleReceiptSweep(s *gocron.Scheduler, app *core.App) {
	_, err := s.Every(1).Hour().Do(func() {
		removed := app.Webhooks.Sweep(time.Now().UTC().Add(-webhook.TTL))
		if removed > 0 {
			log.Printf("Webhook sweep evicted %d expired receipts.", removed)
		}
	})
	if err != nil {
		log.Printf("Error scheduling webhook sweep job: %v", err)
	}
}

func scheduleHistoryPrune(s *gocron.Scheduler, app *core.App) {
	retention := app.Config.HistoryRetentionDays
	if retention <= 0 {
		log.Println("History retention is 0, transition pruning is disabled.")
		return
	}

	log.Printf("Scheduling transition prune to run daily with %d day retention.", retention)
	_, err := s.Every(24).Hours().Do(func() {
		cutoff := time.Now().UTC().AddDate(0, 0, -retention)
		removed, err := app.Store.PruneTransitions(cutoff)
		if err != nil {
			log.Printf("Transition prune failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Transition prune removed %d rows.", removed)
		}
	})
	if err != nil {
		log.Printf("Error scheduling transition prune job: %v", err)
	}
}
