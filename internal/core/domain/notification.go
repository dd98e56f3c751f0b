package domain

import "time"

// NotificationKind names the message template a notification is rendered with.
type NotificationKind string

const (
	NotifyVerification      NotificationKind = "verification"
	NotifyRegistration      NotificationKind = "registration"
	NotifyAdminRegistration NotificationKind = "admin_notification"
	NotifyAcceptance        NotificationKind = "acceptance"
	NotifyDenial            NotificationKind = "denial"
	NotifyDirect            NotificationKind = "direct"
)

// Notification is a templated message addressed to a single recipient.
type Notification struct {
	ID        string            `json:"id"`
	Kind      NotificationKind  `json:"kind"`
	To        string            `json:"to"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}
