package notice

import (
	"testing"
	"time"

	"github.com/campuslink/campus-verify/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SendVerificationEmail(t *testing.T) {
	mock := &notification.MockNotifier{}
	svc, err := NewService("https://campus.example.edu", WithNotifier(mock))
	require.NoError(t, err)

	err = svc.SendVerificationEmail("a@x.edu", "tok+en/value", 24*time.Hour)
	require.NoError(t, err)

	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "a@x.edu", mock.SentNotifications[0].To)
	assert.Equal(t, notification.EmailVerificationNotice, mock.SentTypes[0])

	link := mock.SentNotifications[0].Data["VerificationLink"]
	assert.Contains(t, link, "https://campus.example.edu/verify-email?token=")
	// Raw token value is URL-escaped into the link.
	assert.Contains(t, link, "tok%2Ben%2Fvalue")
	assert.Equal(t, "24 hours", mock.SentNotifications[0].Data["Expiry"])
}

func TestService_SendPasswordResetEmail(t *testing.T) {
	mock := &notification.MockNotifier{}
	svc, err := NewService("https://campus.example.edu", WithNotifier(mock))
	require.NoError(t, err)

	err = svc.SendPasswordResetEmail("a@x.edu", "resettoken", 15*time.Minute)
	require.NoError(t, err)

	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, notification.PasswordResetNotice, mock.SentTypes[0])
	assert.Contains(t, mock.SentNotifications[0].Data["ResetLink"], "/reset-password?token=resettoken")
	assert.Equal(t, "15 minutes", mock.SentNotifications[0].Data["Expiry"])
}

func TestService_RequiresNotifierOrSMTP(t *testing.T) {
	_, err := NewService("https://campus.example.edu")
	assert.Error(t, err)
}
