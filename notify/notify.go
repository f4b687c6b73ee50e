// Package notify delivers rendered reports through the configured channels.
package notify

import (
	"context"

	"trendwatch/report"
)

// Notifier is one outbound notification channel.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// Format is the markup convention the channel expects.
	Format() report.Format
	// Send delivers one rendered message.
	Send(ctx context.Context, text string) error
}
