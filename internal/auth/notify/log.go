package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

// LogNotifier records that a message would have been sent, for local
// development without a relay. Bodies are never logged since they carry
// confirmation codes.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = LogNotifier{}

func (n LogNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	log := n.Logger
	if log == nil {
		log = slogx.FromContext(ctx)
	}
	log.InfoContext(ctx, "email delivery skipped, no smtp relay configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
