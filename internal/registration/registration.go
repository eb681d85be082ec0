// Package registration drives the external waiting form: a strictly
// sequential three-page flow ending in a wait number. Every transition waits
// for a visible UI condition first; any expired wait aborts the invocation.
package registration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
)

// State names the position in the flow, carried on failures.
type State string

const (
	StateStart             State = "Start"
	StateLinkLoaded        State = "LinkLoaded"
	StatePartySizeAdjusted State = "PartySizeAdjusted"
	StatePhoneEntered      State = "PhoneEntered"
	StateStep1Submitted    State = "Step1Submitted"
	StateStep2Loaded       State = "Step2Loaded"
	StateStep2Confirmed    State = "Step2Confirmed"
	StateCompleted         State = "Completed"
)

// Result holds the raw completion-page texts, trimmed but not parsed.
type Result struct {
	WaitNumber       string `json:"waitNumber"`
	TeamsAhead       string `json:"teamsAhead"`
	RegistrationTime string `json:"registrationTime"`
}

const (
	selUpDown     = "button.button-updown" // second match is the plus control
	selPhoneInput = "#test_input"
	selNext       = ".button-next"
	selStep2Panel = ".info-group-step3"

	// completion page classes carry generated suffixes
	fragResultTitle = "wait_text-title"
	fragResultPoint = "wait_text-point"

	stepTimeout = 10 * time.Second
	// the party-size control re-renders per click; let it settle
	clickSettle = 200 * time.Millisecond
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

type Registrar struct {
	url string
	log zerolog.Logger

	settle func(ctx context.Context, d time.Duration) error
}

func New(url string, log zerolog.Logger) *Registrar {
	return &Registrar{
		url:    url,
		log:    log.With().Str("component", "registration").Logger(),
		settle: sleepCtx,
	}
}

// Register runs the full flow on drv and returns the extracted result. drv
// is owned by the caller; Register never closes it.
func (r *Registrar) Register(ctx context.Context, drv automation.Driver, partySize int, phoneNumber string) (Result, error) {
	state := StateStart

	fail := func(err error) (Result, error) {
		if errors.Is(err, automation.ErrWaitTimeout) {
			return Result{}, &automation.TimeoutError{State: string(state), Err: err}
		}
		if errors.Is(err, automation.ErrNoElement) {
			return Result{}, &automation.StructuralError{State: string(state), Detail: err.Error(), Err: err}
		}
		return Result{}, fmt.Errorf("registration: %s: %w", state, err)
	}

	if err := drv.Navigate(ctx, r.url); err != nil {
		return fail(err)
	}
	if err := drv.WaitIdle(ctx); err != nil {
		return fail(err)
	}
	state = StateLinkLoaded
	r.log.Info().Str("url", r.url).Msg("waiting page loaded")

	// the form opens at party size 1; click plus partySize-1 times
	if err := drv.WaitVisible(ctx, selUpDown, 1, stepTimeout); err != nil {
		return fail(err)
	}
	for i := 0; i < partySize-1; i++ {
		if err := drv.Click(ctx, selUpDown, 1); err != nil {
			return fail(err)
		}
		if err := r.settle(ctx, clickSettle); err != nil {
			return fail(err)
		}
	}
	state = StatePartySizeAdjusted
	r.log.Info().Int("party_size", partySize).Msg("party size set")

	if err := drv.WaitVisible(ctx, selPhoneInput, 0, stepTimeout); err != nil {
		return fail(err)
	}
	if err := drv.Fill(ctx, selPhoneInput, nonDigits.ReplaceAllString(phoneNumber, "")); err != nil {
		return fail(err)
	}
	state = StatePhoneEntered

	// the next control stays disabled until the form validates itself;
	// visible alone is not enough to advance
	if err := drv.WaitVisible(ctx, selNext, 0, stepTimeout); err != nil {
		return fail(err)
	}
	if err := drv.WaitEnabled(ctx, selNext, stepTimeout); err != nil {
		return fail(err)
	}
	if err := drv.Click(ctx, selNext, 0); err != nil {
		return fail(err)
	}
	state = StateStep1Submitted
	r.log.Info().Msg("step 1 submitted")

	if err := drv.WaitVisible(ctx, selStep2Panel, 0, stepTimeout); err != nil {
		return fail(err)
	}
	state = StateStep2Loaded

	if err := drv.Click(ctx, selNext, 0); err != nil {
		return fail(err)
	}
	state = StateStep2Confirmed
	r.log.Info().Msg("step 2 confirmed")

	titleSel := automation.ClassContains(fragResultTitle)
	pointSel := automation.ClassContains(fragResultPoint)
	if err := drv.WaitVisible(ctx, titleSel, 0, stepTimeout); err != nil {
		return fail(err)
	}
	state = StateCompleted

	waitNumber, err := drv.Text(ctx, titleSel, 0)
	if err != nil {
		return fail(err)
	}
	// index 1: the first point-class match on this page is not the queue
	// figure, fixed extraction rule for the current page structure
	teamsAhead, err := drv.Text(ctx, pointSel, 1)
	if err != nil {
		return fail(err)
	}
	registrationTime, err := drv.Text(ctx, titleSel, 2)
	if err != nil {
		return fail(err)
	}

	res := Result{
		WaitNumber:       strings.TrimSpace(waitNumber),
		TeamsAhead:       strings.TrimSpace(teamsAhead),
		RegistrationTime: strings.TrimSpace(registrationTime),
	}
	r.log.Info().Str("wait_number", res.WaitNumber).Str("teams_ahead", res.TeamsAhead).Msg("registration completed")
	return res, nil
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
