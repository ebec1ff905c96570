package transport

import "context"

// ChatTarget addresses one chat destination. ThreadID is the forum topic
// thread (0 if none).
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// SendOptions tweak how a single message is rendered by the channel.
type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers one rendered message to one target. Implementations are
// channel-specific (Telegram, SMTP); callers own retry and rate limiting.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
}
