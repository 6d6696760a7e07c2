package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ErrEmptyMessage у письма нет получателя или текста
var ErrEmptyMessage = errors.New("mailer: message must have recipient and body")

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// sender часть resend.EmailsSvc, которую использует Mailer
type sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Message письмо
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer отправка писем через Resend
// В тестовом режиме письма только логируются
type Mailer struct {
	sender   sender
	from     string
	testMode bool
	log      Logger
}

// New создает Mailer. При testMode ключ API не нужен
func New(apiKey, from string, testMode bool, log Logger) *Mailer {
	m := &Mailer{from: from, testMode: testMode, log: log}
	if !testMode {
		m.sender = resend.NewClient(apiKey).Emails
	}
	return m
}

// Send отправляет письмо синхронно
func (m *Mailer) Send(msg Message) error {
	if strings.TrimSpace(msg.To) == "" || strings.TrimSpace(msg.Text) == "" {
		return ErrEmptyMessage
	}

	if m.testMode || m.sender == nil {
		m.log.Info("Mailer: test mode, email not sent to=%s subject=%q", msg.To, msg.Subject)
		return nil
	}

	sent, err := m.sender.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("mailer: send via resend: %w", err)
	}

	m.log.Info("Mailer: email sent id=%s to=%s", sent.Id, msg.To)
	return nil
}

// SendAsync отправляет письмо в фоне. Ошибка только логируется, повторов нет
func (m *Mailer) SendAsync(msg Message) {
	go func() {
		if err := m.Send(msg); err != nil {
			m.log.Error("Mailer: failed to send email to=%s: %v", msg.To, err)
		}
	}()
}
