package bootstrap

import (
	"meridian/internal/workers"
)

// provideWorkers builds the background worker scheduler. Workers that are
// disabled in config are still registered so their health shows up in
// diagnostics; the scheduler skips running them.
func provideWorkers(c *Container) *workers.Scheduler {
	scheduler := workers.NewScheduler()

	scheduler.RegisterWorker(workers.NewQualityScanWorker(
		c.Repos.Catalog,
		c.Repos.Catalog,
		c.Repos.Reviews,
		c.Services.ProductAssessor,
		c.Services.ReviewAssessor,
		c.Services.Events,
		c.Config.Workers.QualityScanInterval,
		c.Config.Workers.QualityScanEnabled,
	))

	scheduler.RegisterWorker(workers.NewJobReaperWorker(
		c.Repos.Jobs,
		c.Repos.Embeddings,
		c.Config.Workers.JobMaxAge,
		c.Config.Workers.JobReaperInterval,
		c.Config.Workers.JobReaperEnabled,
	))

	return scheduler
}
