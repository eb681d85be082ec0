package waiting

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	toggleRe = regexp.MustCompile(`^(am|pm|weekday|weekend)\s+(on|off)$`)
	digitsRe = regexp.MustCompile(`^\d+$`)
	phoneRe  = regexp.MustCompile(`^\d{10,11}$`)
)

var flagLabels = map[string]string{
	"am":      "오전",
	"pm":      "오후",
	"weekday": "평일",
	"weekend": "주말",
}

const usageReply = "사용법:\n" +
	"/waiting [인원수] [전화번호] - 등록 (전체 활성)\n" +
	"/waiting am on|off - 오전(10시) 켜기/끄기\n" +
	"/waiting pm on|off - 오후(16시) 켜기/끄기\n" +
	"/waiting weekday on|off - 평일 켜기/끄기\n" +
	"/waiting weekend on|off - 주말 켜기/끄기\n" +
	"/waiting off - 전체 비활성화\n" +
	"/waiting status - 현재 설정 조회"

const formatReply = "형식: /waiting [인원수] [전화번호]\n예: /waiting 3 01012345678"

// Commander mutates the stored configuration from short slash-command text.
// Malformed input is answered with usage text, never an error; only a store
// failure propagates to the caller.
type Commander struct {
	store ConfigStore
}

func NewCommander(store ConfigStore) *Commander {
	return &Commander{store: store}
}

// Handle executes one command and returns the reply text.
func (c *Commander) Handle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)

	if text == "off" {
		cfg, err := c.store.Config(ctx)
		if err != nil {
			return "", err
		}
		cfg.DisableAll()
		if err := c.store.SaveConfig(ctx, cfg); err != nil {
			return "", err
		}
		return "전체 비활성화 완료", nil
	}

	if m := toggleRe.FindStringSubmatch(text); m != nil {
		name, on := m[1], m[2] == "on"
		cfg, err := c.store.Config(ctx)
		if err != nil {
			return "", err
		}
		cfg.SetFlag(name, on)
		if err := c.store.SaveConfig(ctx, cfg); err != nil {
			return "", err
		}
		state := "활성화"
		if !on {
			state = "비활성화"
		}
		return fmt.Sprintf("%s %s 완료", flagLabels[name], state), nil
	}

	if text == "status" {
		cfg, err := c.store.Config(ctx)
		if err != nil {
			return "", err
		}
		return formatStatus(cfg), nil
	}

	if parts := strings.Fields(text); len(parts) == 2 {
		partySize, phone := parts[0], parts[1]
		if !digitsRe.MatchString(partySize) || !phoneRe.MatchString(phone) {
			return formatReply, nil
		}
		cfg := Config{
			PartySize:      partySize,
			PhoneNumber:    phone,
			EnabledAm:      true,
			EnabledPm:      true,
			EnabledWeekday: true,
			EnabledWeekend: true,
		}
		if err := c.store.SaveConfig(ctx, cfg); err != nil {
			return "", err
		}
		return fmt.Sprintf("등록 완료: %s명, %s (오전/오후, 평일/주말 모두 활성)", partySize, phone), nil
	}

	return usageReply, nil
}

func formatStatus(cfg Config) string {
	return fmt.Sprintf("%s명, %s\n오전: %s / 오후: %s\n평일: %s / 주말: %s",
		orDash(cfg.PartySize), orDash(cfg.PhoneNumber),
		onOff(cfg.EnabledAm), onOff(cfg.EnabledPm),
		onOff(cfg.EnabledWeekday), onOff(cfg.EnabledWeekend))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
