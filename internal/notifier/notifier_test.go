package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"seat-notifier/internal/config"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func TestSeatAvailableText(t *testing.T) {
	assert.Equal(t, "Course [Data Structures] section [01] has a seat available!", SeatAvailableSubject("Data Structures", "01"))
	assert.Equal(t, "2/30 seats available", SeatAvailableBody(2, 30))
}

func TestMailerNotify(t *testing.T) {
	fake := &fakeSender{}
	m := &Mailer{client: fake, fromName: "Seat Notifier", fromAddr: "seats@example.com"}

	err := m.Notify(context.Background(), []string{"u@rpi.edu", "v@rpi.edu"}, "subject", "body")

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	to := fake.sent[0].GetToString()
	assert.Equal(t, []string{"<u@rpi.edu>", "<v@rpi.edu>"}, to)
	assert.Equal(t, []string{"subject"}, fake.sent[0].GetGenHeader(mail.HeaderSubject))
}

func TestMailerNotifyFailure(t *testing.T) {
	fake := &fakeSender{err: errors.New("connection refused")}
	m := &Mailer{client: fake, fromName: "Seat Notifier", fromAddr: "seats@example.com"}

	err := m.Notify(context.Background(), []string{"u@rpi.edu"}, "subject", "body")

	var notifyErr *NotifyError
	require.True(t, errors.As(err, &notifyErr))
	assert.Equal(t, []string{"u@rpi.edu"}, notifyErr.Recipients)
	assert.ErrorContains(t, err, "connection refused")
}

func TestMailerNotifyNoRecipients(t *testing.T) {
	fake := &fakeSender{}
	m := &Mailer{client: fake, fromName: "Seat Notifier", fromAddr: "seats@example.com"}

	err := m.Notify(context.Background(), nil, "subject", "body")

	assert.Error(t, err)
	assert.Empty(t, fake.sent)
}

func TestNewMailerRequiresHost(t *testing.T) {
	_, err := NewMailer(config.SMTPConfig{FromAddress: "seats@example.com"})
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), []string{"u@rpi.edu"}, "s", "b"))
}
