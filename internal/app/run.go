package app

import (
	"context"
	"fmt"
	"time"

	"herald/internal/config"
	"herald/internal/deliver"
	"herald/internal/engine"
	kit "herald/internal/transport"
	logx "herald/pkg/logx"
)

// RunOnce performs one full cycle: fetch every group's feed, classify
// against the stored records, deliver the buckets and persist the
// updated records. Overlapping invocations are dropped, not queued.
// A panic anywhere in the cycle is recovered into an error so the
// hourly trigger survives it.
func (a *App) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panic: %v", r)
			a.log.Error("run panicked", logx.Any("panic", r))
		}
	}()
	return a.runOnce(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		a.log.Warn("previous run still active, skipping")
		return nil
	}
	a.running = true
	a.runMu.Unlock()
	defer func() {
		a.runMu.Lock()
		a.running = false
		a.runMu.Unlock()
	}()

	cfg := a.cfgm.Get()
	now := a.now()
	started := time.Now()

	anchor, err := config.ParseWeekday(cfg.Window.WeekAnchor)
	if err != nil {
		return fmt.Errorf("window.week_anchor: %w", err)
	}
	wcfg := engine.WindowConfig{
		AheadHour:  cfg.Window.AheadHour,
		TodayHour:  cfg.Window.TodayHour,
		WeekAnchor: anchor,
	}

	records, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	// A group whose fetch fails is skipped for this run; its records are
	// left untouched so nothing is misreported as new next hour.
	var inputs []engine.GroupInput
	locs := make(map[string]*time.Location, len(cfg.Groups))
	fetchFailed := 0
	for _, g := range cfg.Groups {
		loc, err := time.LoadLocation(g.Timezone)
		if err != nil {
			a.log.Error("bad group timezone", logx.String("group", g.Name), logx.Err(err))
			fetchFailed++
			continue
		}
		locs[g.Name] = loc

		cands, err := a.supplier.Fetch(ctx, g.Name, g.FeedURL)
		if err != nil {
			a.log.Error("fetch failed, skipping group",
				logx.String("group", g.Name), logx.Err(err))
			fetchFailed++
			continue
		}
		inputs = append(inputs, engine.GroupInput{
			Name:       g.Name,
			Location:   loc,
			Candidates: cands,
		})
	}

	result := engine.Run(now, wcfg, inputs, records)

	deliverFailed := 0
	reported := 0
	for _, g := range cfg.Groups {
		buckets, ok := result[g.Name]
		if !ok {
			continue
		}
		for _, items := range buckets {
			reported += len(items)
		}
		deliverFailed += a.sender.Deliver(ctx, deliver.Target{
			Group:  g.Name,
			Chat:   kit.ChatTarget{ChatID: g.ChatID, ThreadID: g.ThreadID},
			Emails: g.Emails,
		}, buckets, locs[g.Name])
	}

	if err := a.store.Save(ctx, records); err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	a.log.Info("run complete",
		logx.Int("groups", len(inputs)),
		logx.Int("reported", reported),
		logx.Int("fetch_failed", fetchFailed),
		logx.Int("deliver_failed", deliverFailed),
		logx.Duration("took", time.Since(started)))

	if fetchFailed > 0 || deliverFailed > 0 {
		return fmt.Errorf("run degraded: %d fetches and %d deliveries failed", fetchFailed, deliverFailed)
	}
	return nil
}
