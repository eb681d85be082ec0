// Package lotto automates the weekly lottery ticket purchase: a single
// linear flow with no stored configuration, driven by the same automation
// capability as the waiting registration.
package lotto

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
)

const (
	loginURL = "https://www.dhlottery.co.kr/login"
	gameURL  = "https://ol.dhlottery.co.kr/olotto/game/game645.do"

	selUserID   = "#inpUserId"
	selUserPW   = "#inpUserPswdEncn"
	selLogin    = "#btnLogin"
	selGameGrid = "#num2"
	selQuantity = "#amoundApply"
	selApply    = "#btnSelectNum"
	selBuy      = "#btnBuy"
	selConfirm  = `input[onclick*="closepopupLayerConfirm(true)"]`
	selReceipt  = "#popReceipt"
	selRound    = "#buyRound"

	stepTimeout = 10 * time.Second
)

// receiptScript renders each purchased line as "label: n, n, n, n, n, n".
const receiptScript = `(() => {
  const rows = document.querySelectorAll("#reportRow > li");
  return JSON.stringify([...rows].map((row) => {
    const label = row.querySelector("strong > span:first-child").textContent.trim();
    const nums = [...row.querySelectorAll(".nums > span")].map((s) => s.textContent.trim());
    return label + ": " + nums.join(", ");
  }));
})()`

type Result struct {
	Round   string
	Tickets []string
}

type Buyer struct {
	id      string
	pw      string
	tickets int
	log     zerolog.Logger
}

func New(id, pw string, tickets int, log zerolog.Logger) *Buyer {
	return &Buyer{id: id, pw: pw, tickets: tickets, log: log.With().Str("component", "lotto").Logger()}
}

// Buy logs in, purchases b.tickets auto-picked lines and scrapes the
// receipt. drv is owned by the caller.
func (b *Buyer) Buy(ctx context.Context, drv automation.Driver) (Result, error) {
	if b.id == "" || b.pw == "" {
		return Result{}, fmt.Errorf("lotto: credentials not configured")
	}

	if err := drv.Navigate(ctx, loginURL); err != nil {
		return Result{}, fmt.Errorf("lotto: open login: %w", err)
	}
	if err := drv.WaitVisible(ctx, selUserID, 0, stepTimeout); err != nil {
		return Result{}, fmt.Errorf("lotto: login form: %w", err)
	}
	if err := drv.Fill(ctx, selUserID, b.id); err != nil {
		return Result{}, err
	}
	if err := drv.Fill(ctx, selUserPW, b.pw); err != nil {
		return Result{}, err
	}
	if err := drv.Click(ctx, selLogin, 0); err != nil {
		return Result{}, err
	}
	b.log.Info().Msg("logged in")

	if err := drv.Navigate(ctx, gameURL); err != nil {
		return Result{}, fmt.Errorf("lotto: open game page: %w", err)
	}
	if err := drv.WaitIdle(ctx); err != nil {
		return Result{}, err
	}
	if err := drv.WaitVisible(ctx, selGameGrid, 0, stepTimeout); err != nil {
		return Result{}, fmt.Errorf("lotto: game grid: %w", err)
	}

	// page-global helper switches to the auto-pick tab
	if _, err := drv.Eval(ctx, "selectWayTab(1)"); err != nil {
		return Result{}, fmt.Errorf("lotto: select auto tab: %w", err)
	}
	if err := drv.Fill(ctx, selQuantity, strconv.Itoa(b.tickets)); err != nil {
		return Result{}, err
	}
	if err := drv.Click(ctx, selApply, 0); err != nil {
		return Result{}, err
	}
	b.log.Info().Int("tickets", b.tickets).Msg("quantity selected")

	if err := drv.Click(ctx, selBuy, 0); err != nil {
		return Result{}, err
	}
	if err := drv.Click(ctx, selConfirm, 0); err != nil {
		return Result{}, err
	}

	if err := drv.WaitVisible(ctx, selReceipt, 0, stepTimeout); err != nil {
		return Result{}, fmt.Errorf("lotto: receipt popup: %w", err)
	}

	round, err := drv.Text(ctx, selRound, 0)
	if err != nil {
		return Result{}, err
	}

	raw, err := drv.Eval(ctx, receiptScript)
	if err != nil {
		return Result{}, fmt.Errorf("lotto: read receipt: %w", err)
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return Result{}, fmt.Errorf("lotto: decode receipt: %w", err)
	}
	var tickets []string
	if err := json.Unmarshal([]byte(encoded), &tickets); err != nil {
		return Result{}, fmt.Errorf("lotto: decode receipt rows: %w", err)
	}
	if len(tickets) == 0 {
		tickets = []string{"구매 기록이 없습니다."}
	}

	b.log.Info().Str("round", round).Int("lines", len(tickets)).Msg("purchase completed")
	return Result{Round: round, Tickets: tickets}, nil
}
