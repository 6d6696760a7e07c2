package mailer

import (
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeSender struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func TestSend(t *testing.T) {
	fake := &fakeSender{}
	m := &Mailer{sender: fake, from: "Tutor <lessons@example.com>", log: nopLogger{}}

	err := m.Send(Message{To: "anna@example.com", Subject: "Confirmed", Text: "See you"})

	require.NoError(t, err)
	require.NotNil(t, fake.got)
	assert.Equal(t, []string{"anna@example.com"}, fake.got.To)
	assert.Equal(t, "Tutor <lessons@example.com>", fake.got.From)
	assert.Equal(t, "See you", fake.got.Text)
}

func TestSend_Error(t *testing.T) {
	m := &Mailer{sender: &fakeSender{err: errors.New("rate limited")}, log: nopLogger{}}

	err := m.Send(Message{To: "anna@example.com", Text: "x"})

	assert.ErrorContains(t, err, "rate limited")
}

func TestSend_TestModeDoesNotCallResend(t *testing.T) {
	m := New("", "from@example.com", true, nopLogger{})

	assert.NoError(t, m.Send(Message{To: "anna@example.com", Text: "x"}))
}

func TestSend_EmptyMessage(t *testing.T) {
	m := New("", "from@example.com", true, nopLogger{})

	assert.ErrorIs(t, m.Send(Message{Text: "x"}), ErrEmptyMessage)
}
