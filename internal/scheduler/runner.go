// Package scheduler owns the scheduled invocation flow: gate, precision
// wait, driver session, registration, notification. The cron entries and
// the manual trigger endpoint both run through Runner.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
	"github.com/example/waiting-scheduler/internal/lotto"
	"github.com/example/waiting-scheduler/internal/registration"
	"github.com/example/waiting-scheduler/internal/waiting"
)

// triggers fire a couple of minutes early; anything further from the target
// is a manual run and acts immediately
const maxPrecisionWait = 3 * time.Minute

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Outcome is the terminal result of a scheduled invocation that did not
// fail. Skips are successes.
type Outcome struct {
	Message string
	Result  *registration.Result
	Skipped bool
}

type Runner struct {
	store     waiting.ConfigStore
	sessions  automation.Dialer
	registrar *registration.Registrar
	buyer     *lotto.Buyer
	notifier  Notifier
	log       zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(store waiting.ConfigStore, sessions automation.Dialer, registrar *registration.Registrar, buyer *lotto.Buyer, notifier Notifier, log zerolog.Logger) *Runner {
	return &Runner{
		store:     store,
		sessions:  sessions,
		registrar: registrar,
		buyer:     buyer,
		notifier:  notifier,
		log:       log.With().Str("component", "runner").Logger(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// RunSlot executes one scheduled invocation for slot. Failures are reported
// to the notifier before being returned; skips return a nil error.
func (r *Runner) RunSlot(ctx context.Context, slot waiting.Slot) (Outcome, error) {
	out, err := r.runSlot(ctx, slot)
	if err != nil {
		r.log.Error().Err(err).Str("slot", string(slot)).Msg("slot invocation failed")
		_ = r.notifier.Notify(ctx, fmt.Sprintf("*나니요리 웨이팅 등록 실패* :x:\n에러: %v", err))
		return Outcome{}, err
	}
	return out, nil
}

func (r *Runner) runSlot(ctx context.Context, slot waiting.Slot) (Outcome, error) {
	cfg, err := r.store.Config(ctx)
	if err != nil {
		return Outcome{}, err
	}

	dec := waiting.Gate(r.now(), slot, cfg)
	if !dec.Proceed {
		r.log.Info().Str("slot", string(slot)).Str("reason", dec.Reason).Msg("skipping")
		return Outcome{Message: dec.Reason, Skipped: true}, nil
	}

	partySize, err := strconv.Atoi(dec.PartySize)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid party size %q: %w", dec.PartySize, err)
	}

	if err := r.waitUntilTarget(ctx, slot); err != nil {
		return Outcome{}, err
	}

	drv, err := r.sessions.NewSession(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("open driver session: %w", err)
	}
	defer r.closeSession(drv)

	res, err := r.registrar.Register(ctx, drv, partySize, dec.PhoneNumber)
	if err != nil {
		return Outcome{}, err
	}

	_ = r.notifier.Notify(ctx, strings.Join([]string{
		"*나니요리 웨이팅 등록 완료* :ramen:",
		"대기 번호: " + res.WaitNumber,
		"앞 팀 수: " + res.TeamsAhead,
		"등록 시간: " + res.RegistrationTime,
		"인원: " + dec.PartySize + "명",
	}, "\n"))

	return Outcome{Message: "Waiting registration completed", Result: &res}, nil
}

// waitUntilTarget suspends until the slot's exact target instant when the
// invocation arrived slightly early.
func (r *Runner) waitUntilTarget(ctx context.Context, slot waiting.Slot) error {
	now := r.now().UTC()
	target := time.Date(now.Year(), now.Month(), now.Day(), slot.TargetHourUTC(), 0, 0, 0, time.UTC)
	d := target.Sub(now)
	if d <= 0 || d >= maxPrecisionWait {
		return nil
	}
	r.log.Info().Str("slot", string(slot)).Dur("wait", d).Msg("waiting for target instant")
	return r.sleep(ctx, d)
}

// RunLotto executes one lottery purchase invocation.
func (r *Runner) RunLotto(ctx context.Context) (lotto.Result, error) {
	drv, err := r.sessions.NewSession(ctx)
	if err != nil {
		err = fmt.Errorf("open driver session: %w", err)
		_ = r.notifier.Notify(ctx, fmt.Sprintf("*로또 구매 실패* :x:\n에러: %v", err))
		return lotto.Result{}, err
	}
	defer r.closeSession(drv)

	res, err := r.buyer.Buy(ctx, drv)
	if err != nil {
		r.log.Error().Err(err).Msg("lotto purchase failed")
		_ = r.notifier.Notify(ctx, fmt.Sprintf("*로또 구매 실패* :x:\n에러: %v", err))
		return lotto.Result{}, err
	}

	lines := []string{
		"*로또 자동 구매 완료* :four_leaf_clover:",
		"회차: " + res.Round,
		fmt.Sprintf("구매 수량: %d장", len(res.Tickets)),
		"",
		"*구매 번호:*",
	}
	for _, t := range res.Tickets {
		lines = append(lines, "- "+t)
	}
	_ = r.notifier.Notify(ctx, strings.Join(lines, "\n"))

	return res, nil
}

// closeSession releases the browser session on every exit path, detached
// from the invocation context so a cancelled run still cleans up.
func (r *Runner) closeSession(drv automation.Driver) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := drv.Close(ctx); err != nil {
		r.log.Warn().Err(err).Msg("driver session close failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
