package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/waiting"
)

// invocationTimeout bounds one whole scheduled run (precision wait included).
const invocationTimeout = 10 * time.Minute

// Cron wires the am/pm slot invocations and the optional lottery purchase
// onto in-process cron entries evaluated in KST.
type Cron struct {
	c   *cron.Cron
	log zerolog.Logger
}

type CronConfig struct {
	AmSpec    string
	PmSpec    string
	LottoSpec string // empty disables the lotto entry
}

func NewCron(cfg CronConfig, runner *Runner, log zerolog.Logger) (*Cron, error) {
	log = log.With().Str("component", "cron").Logger()
	c := cron.New(cron.WithLocation(waiting.KST))

	slotJob := func(slot waiting.Slot) func() {
		return func() {
			ctx, cancel := context.WithTimeout(context.Background(), invocationTimeout)
			defer cancel()
			out, err := runner.RunSlot(ctx, slot)
			if err != nil {
				// already notified and logged by the runner
				return
			}
			log.Info().Str("slot", string(slot)).Str("message", out.Message).Msg("slot invocation done")
		}
	}

	if _, err := c.AddFunc(cfg.AmSpec, slotJob(waiting.SlotAm)); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.PmSpec, slotJob(waiting.SlotPm)); err != nil {
		return nil, err
	}
	if cfg.LottoSpec != "" {
		if _, err := c.AddFunc(cfg.LottoSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), invocationTimeout)
			defer cancel()
			if _, err := runner.RunLotto(ctx); err != nil {
				return
			}
			log.Info().Msg("lotto invocation done")
		}); err != nil {
			return nil, err
		}
	}

	return &Cron{c: c, log: log}, nil
}

func (c *Cron) Start() {
	c.log.Info().Msg("cron started")
	c.c.Start()
}

// Stop halts scheduling and waits briefly for a running job.
func (c *Cron) Stop() {
	ctx := c.c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		c.log.Warn().Msg("cron jobs still running at shutdown")
	}
}
