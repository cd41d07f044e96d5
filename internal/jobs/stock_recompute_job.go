package jobs

import (
	"context"

	"jigtrack/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StockRecomputeJob periodically refreshes every jig's cached
// availability from the detail table. The cache is only advisory; reads
// that need the exact figure derive it on the spot.
type StockRecomputeJob struct {
	stockService service.StockService
	schedule     string
	cron         *cron.Cron
	log          *logrus.Entry
}

func NewStockRecomputeJob(stockService service.StockService, schedule string, log *logrus.Logger) *StockRecomputeJob {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &StockRecomputeJob{
		stockService: stockService,
		schedule:     schedule,
		cron:         cron.New(),
		log:          log.WithField("component", "stock_recompute_job"),
	}
}

// Start schedules the recompute and kicks off the cron runner.
func (j *StockRecomputeJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		updated, err := j.stockService.RecomputeAll(ctx)
		if err != nil {
			j.log.WithError(err).Error("Stock recompute job failed")
			return
		}
		j.log.WithField("updated", updated).Info("Stock recompute job finished")
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.log.WithField("schedule", j.schedule).Info("Stock recompute job started")
	return nil
}

// Stop stops the cron runner.
func (j *StockRecomputeJob) Stop() {
	j.cron.Stop()
	j.log.Info("Stock recompute job stopped")
}
