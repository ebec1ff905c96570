// Package mail is the SMTP delivery channel. Unlike chat channels it is
// addressed by recipient lists, so it does not implement transport.Sender.
package mail

import (
	"context"
	"errors"
	"strings"

	"gopkg.in/gomail.v2"

	logx "herald/pkg/logx"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Sender struct {
	dialer *gomail.Dialer
	from   string
	log    logx.Logger
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is empty")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is empty")
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log,
	}, nil
}

// Send delivers one plain-text message to all recipients in a single SMTP
// session. gomail has no context support; ctx is only honored between the
// decision to send and the dial.
func (s *Sender) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return err
	}
	s.log.Debug("mail sent", logx.Int("recipients", len(to)), logx.String("subject", subject))
	return nil
}
