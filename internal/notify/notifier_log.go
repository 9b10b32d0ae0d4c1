package notify

import (
	"context"
	"log/slog"
	"time"

	id "roadwatch/pkg/domain"
)

// LogNotifier writes notifications to the structured log. Used in dev mode
// and as the terminal sink behind the async worker until a real email
// provider is wired.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification *Notification) error {
	if notification.ID.IsNil() {
		notification.ID = id.NewNotificationID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	n.logger.InfoContext(ctx, "notification",
		"notification_id", notification.ID.String(),
		"kind", string(notification.Kind),
		"subject_name", notification.SubjectName,
		"subject_email", notification.SubjectEmail,
		"guardian_email", notification.GuardianEmail,
		"details", notification.Details,
	)
	return nil
}
