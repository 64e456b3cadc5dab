// Package notice wires the notification manager with the built-in email
// templates and exposes the two sends the verification flow needs.
package notice

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/campuslink/campus-verify/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// Service sends the verification-flow notices. The base URL is the frontend
// origin the token links point back to.
type Service struct {
	manager *notification.NotificationManager
	baseURL string
}

// Option defines configuration options for building the notice service.
type Option func(*options)

type options struct {
	notifier notification.Notifier
	smtp     *notification.SMTPConfig
}

// WithSMTP sends notices through an SMTP email notifier.
func WithSMTP(config notification.SMTPConfig) Option {
	return func(o *options) {
		o.smtp = &config
	}
}

// WithNotifier sends notices through the given notifier. Takes precedence
// over WithSMTP; used by tests with a MockNotifier.
func WithNotifier(n notification.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// NewService builds a notice service with the default templates registered.
func NewService(baseURL string, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	notifier := o.notifier
	if notifier == nil {
		if o.smtp == nil {
			return nil, fmt.Errorf("notice: either WithNotifier or WithSMTP is required")
		}
		emailNotifier, err := notification.NewEmailNotifier(*o.smtp)
		if err != nil {
			return nil, err
		}
		notifier = emailNotifier
	}

	manager := notification.NewNotificationManager(notifier)

	err := manager.RegisterNotification(notification.EmailVerificationNotice, notification.NoticeTemplate{
		Subject: "Verify your email address",
		Html:    loadTemplate("templates/email/email_verification.html"),
	})
	if err != nil {
		return nil, err
	}

	err = manager.RegisterNotification(notification.PasswordResetNotice, notification.NoticeTemplate{
		Subject: "Password Reset Request",
		Html:    loadTemplate("templates/email/password_reset.html"),
	})
	if err != nil {
		return nil, err
	}

	return &Service{manager: manager, baseURL: baseURL}, nil
}

// SendVerificationEmail mails the email-verification link carrying the raw
// token value.
func (s *Service) SendVerificationEmail(to, token string, ttl time.Duration) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, url.QueryEscape(token))

	return s.manager.Send(notification.EmailVerificationNotice, notification.NotificationData{
		To: to,
		Data: map[string]string{
			"VerificationLink": link,
			"Expiry":           formatExpiry(ttl),
		},
	})
}

// SendPasswordResetEmail mails the password-reset link carrying the raw
// token value.
func (s *Service) SendPasswordResetEmail(to, token string, ttl time.Duration) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(token))

	return s.manager.Send(notification.PasswordResetNotice, notification.NotificationData{
		To: to,
		Data: map[string]string{
			"ResetLink": link,
			"Expiry":    formatExpiry(ttl),
		},
	})
}

func formatExpiry(ttl time.Duration) string {
	if ttl >= time.Hour {
		return fmt.Sprintf("%.0f hours", ttl.Hours())
	}
	return fmt.Sprintf("%.0f minutes", ttl.Minutes())
}
