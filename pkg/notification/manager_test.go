package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationManager_Send(t *testing.T) {
	mock := &MockNotifier{}
	nm := NewNotificationManager(mock)

	err := nm.RegisterNotification(EmailVerificationNotice, NoticeTemplate{
		Subject: "Verify your email address",
		Html:    "<a href=\"{{.VerificationLink}}\">verify</a>",
	})
	require.NoError(t, err)

	err = nm.Send(EmailVerificationNotice, NotificationData{
		To:   "a@x.edu",
		Data: map[string]string{"VerificationLink": "https://example.edu/verify"},
	})
	require.NoError(t, err)

	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "a@x.edu", mock.SentNotifications[0].To)
}

func TestNotificationManager_UnregisteredType(t *testing.T) {
	nm := NewNotificationManager(&MockNotifier{})

	err := nm.Send(PasswordResetNotice, NotificationData{To: "a@x.edu"})
	assert.Error(t, err)
}

func TestNotificationManager_RejectsEmptyTemplate(t *testing.T) {
	nm := NewNotificationManager(&MockNotifier{})

	err := nm.RegisterNotification(PasswordResetNotice, NoticeTemplate{Subject: "no body"})
	assert.Error(t, err)

	err = nm.RegisterNotification("", NoticeTemplate{Subject: "s", Text: "t"})
	assert.Error(t, err)
}
