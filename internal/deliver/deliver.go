// Package deliver renders run results and hands them to the configured
// channels. Failures are isolated: one group or channel failing never
// blocks the rest of the run's deliveries.
package deliver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"herald/internal/engine"
	kit "herald/internal/transport"
	logx "herald/pkg/logx"
)

type Config struct {
	RatePerSec int
	RetryMax   int
}

// Mailer is the e-mail channel (nil when SMTP is not configured).
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Target is one group's delivery destinations.
type Target struct {
	Group  string
	Chat   kit.ChatTarget // ChatID 0 = no chat delivery
	Emails []string
}

type Deliverer struct {
	chat     kit.Sender
	mail     Mailer
	limiter  *rate.Limiter
	retryMax int
	log      logx.Logger
}

func New(cfg Config, chat kit.Sender, mail Mailer, log logx.Logger) *Deliverer {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Deliverer{
		chat:     chat,
		mail:     mail,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		retryMax: cfg.RetryMax,
		log:      log,
	}
}

// Deliver sends one group's buckets to all of its targets. The returned
// count is the number of failed sends (zero = all good); errors are
// logged, not propagated, so the caller keeps going with other groups.
func (d *Deliverer) Deliver(ctx context.Context, t Target, buckets engine.Buckets, loc *time.Location) int {
	failed := 0

	if t.Chat.ChatID != 0 && d.chat != nil {
		if text := renderHTML(buckets, loc); text != "" {
			if err := d.sendChat(ctx, t.Chat, text); err != nil {
				d.log.Error("chat delivery failed", logx.String("group", t.Group), logx.Err(err))
				failed++
			}
		}
	}

	if len(t.Emails) > 0 && d.mail != nil {
		if body := renderPlain(buckets, loc); body != "" {
			subject := fmt.Sprintf("[%s] upcoming events", t.Group)
			if err := d.mail.Send(ctx, t.Emails, subject, body); err != nil {
				d.log.Error("mail delivery failed", logx.String("group", t.Group), logx.Err(err))
				failed++
			}
		}
	}

	return failed
}

func (d *Deliverer) sendChat(ctx context.Context, to kit.ChatTarget, text string) error {
	opt := &kit.SendOptions{ParseMode: "HTML", DisablePreview: true}

	var lastErr error
	for attempt := 0; attempt <= d.retryMax; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := d.chat.SendText(callCtx, to, text, opt)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}
