package model

import (
	"context"
	"time"
)

// NotificationKind tells subscribers how to render a notification.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationFailure NotificationKind = "failure"
)

// Notification is a user-facing message about an analysis run.
type Notification struct {
	RunID       string
	Kind        NotificationKind
	Title       string
	Description string
	Stats       *AnalysisStats
	Timestamp   time.Time
}

// Notifier defines a generic interface for sending notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
