package cronrunner

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules jobs with second-resolution cron specs. Every job runs
// with the base context so shutdown cancels in-flight work.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers job under name. A job that panics is logged and the
// schedule keeps going.
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	if r == nil || r.cron == nil {
		return 0, fmt.Errorf("cron runner not initialized")
	}
	id, err := r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("cron job panicked", zap.String("job", name), zap.Any("panic", rec))
			}
		}()
		job(r.baseCtx)
	})
	if err != nil {
		return 0, fmt.Errorf("cron %s: %w", name, err)
	}
	r.logger.Info("cron job scheduled", zap.String("job", name), zap.String("spec", spec), zap.Int("entry", int(id)))
	return id, nil
}

func (r *Runner) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.logger.Info("cron started", zap.Int("jobs", len(r.cron.Entries())))
	r.cron.Start()
}

func (r *Runner) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}
