// internal/models/notification.go
package models

// Notification is one result message sent to an applicant.
type Notification struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"applicationId"`
	Status        FormStatus `json:"status"`
	Channel       string     `json:"channel"` // "email", "sms"
	Result        string     `json:"result"`  // "sent", "failed", "skipped"
	SentAt        string     `json:"sentAt"`
}

type NotificationTemplate struct {
	Status  FormStatus `json:"status"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
}
