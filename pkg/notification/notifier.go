package notification

// NoticeType identifies a kind of notice sent to a user.
type NoticeType string

const (
	EmailVerificationNotice NoticeType = "email_verification"
	PasswordResetNotice     NoticeType = "password_reset"
)

// NotificationData carries the per-send payload.
type NotificationData struct {
	To   string            // Recipient address
	Data map[string]string // Template variables (link, expiry, ...)
}

// NoticeTemplate holds the rendered-from templates for one notice type.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a rendered notice over one channel.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
