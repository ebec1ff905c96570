// Package fetch supplies candidate events from a group's HTTP feed.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"herald/internal/engine"
	logx "herald/pkg/logx"
)

type Config struct {
	Timeout       time.Duration
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	return c
}

// Supplier fetches and validates one group's candidates. Transient HTTP
// failures are retried with exponential backoff; when retries are
// exhausted the error is returned and the caller skips the group for this
// run. Malformed entries are skipped individually, never failing the
// whole feed.
type Supplier struct {
	cfg    Config
	client *http.Client
	log    logx.Logger
}

func New(cfg Config, log logx.Logger) *Supplier {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Supplier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (s *Supplier) Fetch(ctx context.Context, group, url string) ([]engine.Candidate, error) {
	var lastErr error
	attempts := 1 + s.cfg.RetryMax
	for attempt := 1; attempt <= attempts; attempt++ {
		payloads, err := s.fetchOnce(ctx, url)
		if err == nil {
			return s.validate(group, payloads), nil
		}
		lastErr = err
		s.log.Debug("feed fetch failed",
			logx.String("group", group), logx.Int("attempt", attempt), logx.Err(err))

		if attempt >= attempts {
			break
		}
		t := time.NewTimer(retryDelay(s.cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", group, lastErr)
}

func (s *Supplier) fetchOnce(ctx context.Context, url string) ([]eventPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payloads []eventPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return payloads, nil
}

func (s *Supplier) validate(group string, payloads []eventPayload) []engine.Candidate {
	out := make([]engine.Candidate, 0, len(payloads))
	for i, p := range payloads {
		c, err := p.candidate()
		if err != nil {
			s.log.Warn("skipping malformed event",
				logx.String("group", group), logx.Int("index", i),
				logx.String("id", p.ID), logx.Err(err))
			continue
		}
		out = append(out, c)
	}
	return out
}

func retryDelay(cfg Config, attempt int) time.Duration {
	// Exponential backoff: base * 2^(attempt-1), capped, with 0.7..1.3 jitter.
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > cfg.RetryMaxDelay {
		d = cfg.RetryMaxDelay
	}
	return d
}
