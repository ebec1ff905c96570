package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Window maps invocation hours to notification windows.
	Window WindowConfig `json:"window"`

	// Trigger controls the built-in hourly trigger. When disabled, herald
	// is expected to be invoked externally with -once.
	Trigger TriggerConfig `json:"trigger"`

	Fetch    FetchConfig    `json:"fetch,omitempty"`
	Delivery DeliveryConfig `json:"delivery,omitempty"`
	SMTP     *SMTPConfig    `json:"smtp,omitempty"`
	Storage  StorageConfig  `json:"storage"`
	Groups   []GroupConfig  `json:"groups"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// GroupLog is the chat that receives warning/error log lines and
	// crash reports. 0 disables the sink.
	GroupLog    int64 `json:"group_log,omitempty"`
	LogThreadID int   `json:"log_thread_id,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// WindowConfig fixes which hour of the day selects which look-ahead
// window. Hours are local to each group's timezone.
type WindowConfig struct {
	// AheadHour triggers the next-day window, or the 7-day window when
	// the local weekday matches WeekAnchor.
	AheadHour int `json:"ahead_hour"`
	// TodayHour triggers the same-day morning window.
	TodayHour int `json:"today_hour"`
	// WeekAnchor is a weekday name ("sunday", "monday", ...).
	WeekAnchor string `json:"week_anchor"`
}

type TriggerConfig struct {
	Enabled bool `json:"enabled"`
	// Timezone for the cron trigger itself (IANA name). Groups still
	// resolve their windows in their own zones.
	Timezone string `json:"timezone,omitempty"`
}

// FetchConfig controls the candidate supplier.
// All durations are Go duration strings (e.g. "500ms", "10s").
type FetchConfig struct {
	Timeout       string `json:"timeout,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// DeliveryConfig controls outbound message pacing.
type DeliveryConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
	RetryMax   int `json:"retry_max,omitempty"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	From     string `json:"from"`
}

// StorageConfig controls the event-record store.
//
// Driver values:
//   - "file": JSON snapshot file
//   - "sqlite": SQLite database file
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// GroupConfig is one event source with its own timezone and delivery
// targets.
type GroupConfig struct {
	Name     string `json:"name"`
	FeedURL  string `json:"feed_url"`
	Timezone string `json:"timezone"`

	ChatID   int64    `json:"chat_id"`
	ThreadID int      `json:"thread_id,omitempty"`
	Emails   []string `json:"emails,omitempty"`
}

// ParseWeekday maps a weekday name to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
}

// Validate rejects configs the app could not run with. It is also the
// watch-time gate: a bad on-disk edit is reported and never committed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Window.AheadHour < 0 || c.Window.AheadHour > 23 {
		return fmt.Errorf("window.ahead_hour out of range: %d", c.Window.AheadHour)
	}
	if c.Window.TodayHour < 0 || c.Window.TodayHour > 23 {
		return fmt.Errorf("window.today_hour out of range: %d", c.Window.TodayHour)
	}
	if _, err := ParseWeekday(c.Window.WeekAnchor); err != nil {
		return fmt.Errorf("window.week_anchor: %w", err)
	}
	if c.Trigger.Timezone != "" {
		if _, err := time.LoadLocation(c.Trigger.Timezone); err != nil {
			return fmt.Errorf("trigger.timezone: %w", err)
		}
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("at least one group is required")
	}
	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("groups[%d].name is required", i)
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate group name %q", g.Name)
		}
		seen[g.Name] = true
		if strings.TrimSpace(g.FeedURL) == "" {
			return fmt.Errorf("group %q: feed_url is required", g.Name)
		}
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			return fmt.Errorf("group %q: timezone: %w", g.Name, err)
		}
		if g.ChatID == 0 && len(g.Emails) == 0 {
			return fmt.Errorf("group %q: needs a chat_id or emails", g.Name)
		}
	}
	if anyEmails(c.Groups) && c.SMTP == nil {
		return fmt.Errorf("smtp section is required when groups have email targets")
	}
	for _, raw := range []struct{ path, v string }{
		{"fetch.timeout", c.Fetch.Timeout},
		{"fetch.retry_base", c.Fetch.RetryBase},
		{"fetch.retry_max_delay", c.Fetch.RetryMaxDelay},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
	} {
		if _, err := ParseDurationField(raw.path, raw.v); err != nil {
			return err
		}
	}
	return nil
}

func anyEmails(groups []GroupConfig) bool {
	for _, g := range groups {
		if len(g.Emails) > 0 {
			return true
		}
	}
	return false
}
