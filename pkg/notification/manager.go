package notification

import (
	"fmt"
)

// NotificationManager pairs a notifier with the registered notice
// templates. The verification flow produces tokens; this is the only place
// they are turned into outbound mail.
type NotificationManager struct {
	notifier  Notifier
	templates map[NoticeType]NoticeTemplate
}

// NewNotificationManager creates a manager sending through the given notifier.
func NewNotificationManager(notifier Notifier) *NotificationManager {
	return &NotificationManager{
		notifier:  notifier,
		templates: make(map[NoticeType]NoticeTemplate),
	}
}

// RegisterNotification adds or replaces the template for a notice type.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, template NoticeTemplate) error {
	if noticeType == "" {
		return fmt.Errorf("invalid input: notice type cannot be empty")
	}
	if template.Subject == "" || (template.Text == "" && template.Html == "") {
		return fmt.Errorf("invalid template for %s: subject and a body are required", noticeType)
	}

	nm.templates[noticeType] = template
	return nil
}

// Send renders and delivers the notice.
func (nm *NotificationManager) Send(noticeType NoticeType, notification NotificationData) error {
	template, exists := nm.templates[noticeType]
	if !exists {
		return fmt.Errorf("no template registered for notice type: %s", noticeType)
	}

	if nm.notifier == nil {
		return fmt.Errorf("no notifier registered")
	}

	return nm.notifier.Send(noticeType, notification, template)
}
