// Package waiting holds the waiting-list registration settings, the slash
// command grammar that mutates them, and the gate that decides whether a
// scheduled slot invocation should run.
package waiting

import "context"

// Config is the singleton registration configuration. It is stored as one
// JSON blob; absence of a stored value means every field at its zero value.
type Config struct {
	PartySize   string `json:"partySize"`
	PhoneNumber string `json:"phoneNumber"`

	EnabledAm      bool `json:"enabledAm"`
	EnabledPm      bool `json:"enabledPm"`
	EnabledWeekday bool `json:"enabledWeekday"`
	EnabledWeekend bool `json:"enabledWeekend"`
}

// ConfigStore is the persistence surface the command router and the
// scheduled flow need. Implemented by internal/store.
type ConfigStore interface {
	Config(ctx context.Context) (Config, error)
	SaveConfig(ctx context.Context, cfg Config) error
}

// DisableAll clears the four schedule flags, preserving party size and
// phone number.
func (c *Config) DisableAll() {
	c.EnabledAm = false
	c.EnabledPm = false
	c.EnabledWeekday = false
	c.EnabledWeekend = false
}

// SetFlag toggles one schedule flag by its command name (am, pm, weekday,
// weekend). Returns false for an unknown name.
func (c *Config) SetFlag(name string, on bool) bool {
	switch name {
	case "am":
		c.EnabledAm = on
	case "pm":
		c.EnabledPm = on
	case "weekday":
		c.EnabledWeekday = on
	case "weekend":
		c.EnabledWeekend = on
	default:
		return false
	}
	return true
}

func (c Config) flag(name string) bool {
	switch name {
	case "am":
		return c.EnabledAm
	case "pm":
		return c.EnabledPm
	case "weekday":
		return c.EnabledWeekday
	case "weekend":
		return c.EnabledWeekend
	}
	return false
}
