package waiting

import (
	"fmt"
	"time"
)

// Decision is the outcome of gating a scheduled invocation. A skip is a
// normal terminal outcome, not an error.
type Decision struct {
	Proceed bool
	Reason  string // skip message when Proceed is false

	PartySize   string
	PhoneNumber string
}

// Gate decides whether the scheduled action for slot should run at now.
// Day-type (weekday/weekend, computed in KST) is checked first, then the
// slot flag together with the presence of party size and phone number.
func Gate(now time.Time, slot Slot, cfg Config) Decision {
	wd := now.In(KST).Weekday()
	isWeekend := wd == time.Saturday || wd == time.Sunday

	dayTypeEnabled := cfg.EnabledWeekday
	dayType := "weekday"
	if isWeekend {
		dayTypeEnabled = cfg.EnabledWeekend
		dayType = "weekend"
	}
	if !dayTypeEnabled {
		return Decision{Reason: fmt.Sprintf("Skipped - %s disabled", dayType)}
	}

	slotEnabled := cfg.EnabledAm
	if slot == SlotPm {
		slotEnabled = cfg.EnabledPm
	}
	if !slotEnabled || cfg.PartySize == "" || cfg.PhoneNumber == "" {
		return Decision{Reason: fmt.Sprintf("Skipped - %s not enabled or missing config", slot)}
	}

	return Decision{
		Proceed:     true,
		PartySize:   cfg.PartySize,
		PhoneNumber: cfg.PhoneNumber,
	}
}
