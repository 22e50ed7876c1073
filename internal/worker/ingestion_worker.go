package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/service"
)

// ist is the scheduling timezone: scraping runs on the 27th, ingestion the
// evening after.
var ist = time.FixedZone("IST", 5*3600+1800)

// IngestionWorker runs the monthly data ingestion on a fixed day-of-month
// and hour (IST).
type IngestionWorker struct {
	ingestionService *service.IngestionService
	day              int
	hour             int
}

// NewIngestionWorker constructs an IngestionWorker.
func NewIngestionWorker(ingestionService *service.IngestionService, day, hour int) *IngestionWorker {
	return &IngestionWorker{
		ingestionService: ingestionService,
		day:              day,
		hour:             hour,
	}
}

// Start begins the monthly scheduling loop and listens for context cancellation.
func (w *IngestionWorker) Start(ctx context.Context) {
	next := w.nextRun(time.Now().In(ist))
	log.Info().Time("next_run", next).Msg("Starting ingestion worker")

	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			w.run(ctx)
			next = w.nextRun(time.Now().In(ist))
			log.Info().Time("next_run", next).Msg("Ingestion rescheduled")
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Ingestion worker stopped")
			return
		}
	}
}

// nextRun computes the next scheduled wall-clock run strictly after now.
func (w *IngestionWorker) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), w.day, w.hour, 0, 0, 0, ist)
	if !run.After(now) {
		run = time.Date(now.Year(), now.Month()+1, w.day, w.hour, 0, 0, 0, ist)
	}
	return run
}

func (w *IngestionWorker) run(ctx context.Context) {
	log.Info().Msg("Monthly ingestion triggered")

	start := time.Now()
	stats, err := w.ingestionService.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Monthly ingestion failed")
		return
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Msg("Monthly ingestion completed")
}
